// Package pipeline runs one crawl-log analysis end to end: build the
// watched-seed index, map lines with a worker pool, shuffle emissions by
// key, reduce, and write the output artifact.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openwa/crawl-log-analyser/internal/crawllog"
	"github.com/openwa/crawl-log-analyser/internal/documents"
	"github.com/openwa/crawl-log-analyser/internal/mapreduce"
	"github.com/openwa/crawl-log-analyser/internal/metrics"
	"github.com/openwa/crawl-log-analyser/internal/publisher"
	"github.com/openwa/crawl-log-analyser/internal/storage"
	"github.com/openwa/crawl-log-analyser/internal/surt"
	"github.com/openwa/crawl-log-analyser/internal/targets"
)

// DocumentSink persists extracted document records.
type DocumentSink interface {
	Insert(ctx context.Context, doc documents.Record) (string, error)
}

// Config identifies one analysis run.
type Config struct {
	Job          string
	LaunchID     string
	LogPath      string
	TargetsPath  string
	OutputPrefix string
	Concurrency  int
}

// Analysis drives one map/reduce run over a single log file. Mapper and
// reducer stages are pure, so a failed run can simply be re-executed.
type Analysis struct {
	cfg    Config
	store  storage.Provider
	canon  surt.Canonicalizer
	pub    publisher.Publisher
	sink   DocumentSink
	logger *zap.Logger
}

// New constructs an Analysis. Publisher and sink may be nil, which disables
// the corresponding document fan-out.
func New(
	cfg Config,
	store storage.Provider,
	canon surt.Canonicalizer,
	pub publisher.Publisher,
	sink DocumentSink,
	logger *zap.Logger,
) *Analysis {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = "task-state"
	}
	return &Analysis{
		cfg:    cfg,
		store:  store,
		canon:  canon,
		pub:    pub,
		sink:   sink,
		logger: logger,
	}
}

// OutputPath is where the run's artifact lands, parameterized by job name,
// launch identifier, and the input log's basename.
func (a *Analysis) OutputPath() string {
	return fmt.Sprintf("%s/%s/%s/%s.analysis.tsjson",
		a.cfg.OutputPrefix, a.cfg.Job, a.cfg.LaunchID, path.Base(a.cfg.LogPath))
}

// Run executes the full analysis and writes one output artifact.
func (a *Analysis) Run(ctx context.Context) error {
	start := time.Now()
	if err := a.run(ctx); err != nil {
		metrics.ObserveRun("failed", time.Since(start).Seconds())
		return err
	}
	metrics.ObserveRun("succeeded", time.Since(start).Seconds())
	return nil
}

func (a *Analysis) run(ctx context.Context) error {
	index, err := a.buildIndex(ctx)
	if err != nil {
		return err
	}

	extractor := documents.NewExtractor(a.cfg.Job, a.cfg.LaunchID, index, a.canon)
	grouped, err := a.mapPhase(ctx, mapreduce.NewMapper(extractor))
	if err != nil {
		return err
	}

	lines, docs, err := a.reducePhase(grouped)
	if err != nil {
		return err
	}

	out := a.OutputPath()
	if err := a.store.Save(ctx, out, []byte(strings.Join(lines, "\n")+"\n")); err != nil {
		return fmt.Errorf("save artifact %s: %w", out, err)
	}
	a.logger.Info("artifact written",
		zap.String("path", out),
		zap.Int("reduce_keys", len(grouped)),
		zap.Int("documents", len(docs)),
	)

	return a.emitDocuments(ctx, docs)
}

// buildIndex loads the target feed and builds the watched-seed index, once,
// before any mapper work starts.
func (a *Analysis) buildIndex(ctx context.Context) (*targets.Index, error) {
	feed, err := a.store.Open(ctx, a.cfg.TargetsPath)
	if err != nil {
		return nil, fmt.Errorf("open target feed %s: %w", a.cfg.TargetsPath, err)
	}
	defer func() { _ = feed.Close() }()

	index, err := targets.Build(feed, a.canon)
	if err != nil {
		return nil, err
	}
	a.logger.Info("watched seed index built", zap.Int("prefixes", index.Len()))
	return index, nil
}

type numberedLine struct {
	n    int
	text string
}

// mapPhase streams log lines to a pool of mapper workers and groups their
// emissions by key. The first mapper error cancels the pool; a malformed
// line is fatal for the run because the schema is a hard contract.
func (a *Analysis) mapPhase(ctx context.Context, mapper *mapreduce.Mapper) (map[string][]string, error) {
	in, err := a.store.Open(ctx, a.cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", a.cfg.LogPath, err)
	}
	defer func() { _ = in.Close() }()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	grouped := make(map[string][]string)
	lines := make(chan numberedLine)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < a.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for line := range lines {
				kvs, err := mapper.Map(line.text)
				if err != nil {
					var perr *crawllog.ParseError
					if errors.As(err, &perr) {
						metrics.ObserveParseError()
					}
					fail(fmt.Errorf("line %d: %w", line.n, err))
					return
				}
				metrics.ObserveLine()
				mu.Lock()
				for _, kv := range kvs {
					grouped[kv.Key] = append(grouped[kv.Key], kv.Value)
				}
				mu.Unlock()
			}
		}()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
scan:
	for scanner.Scan() {
		n++
		select {
		case lines <- numberedLine{n: n, text: scanner.Text()}:
		case <-workerCtx.Done():
			break scan
		}
	}
	close(lines)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log %s: %w", a.cfg.LogPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Info("map phase complete", zap.Int("lines", n), zap.Int("keys", len(grouped)))
	return grouped, nil
}

// reducePhase folds each key's value multiset and renders the artifact
// lines. Keys are reduced in sorted order so the artifact is byte-stable;
// the fold itself is order-free.
func (a *Analysis) reducePhase(grouped map[string][]string) (lines []string, docs []string, err error) {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kvs, rerr := mapreduce.Reduce(key, grouped[key])
		if rerr != nil {
			return nil, nil, rerr
		}
		for _, kv := range kvs {
			lines = append(lines, kv.Key+"\t"+kv.Value)
			if strings.HasPrefix(kv.Key, mapreduce.KeyDocument) {
				docs = append(docs, kv.Value)
			}
		}
	}
	return lines, docs, nil
}

// emitDocuments fans extracted documents out to the configured sinks after
// the artifact is safely written.
func (a *Analysis) emitDocuments(ctx context.Context, docs []string) error {
	for _, raw := range docs {
		var doc documents.Record
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return fmt.Errorf("decode document record: %w", err)
		}
		metrics.ObserveDocument(doc.Source)

		if a.pub != nil {
			if _, err := a.pub.Publish(ctx, []byte(raw)); err != nil {
				return fmt.Errorf("publish document %s: %w", doc.DocumentURL, err)
			}
		}
		if a.sink != nil {
			id, err := a.sink.Insert(ctx, doc)
			if err != nil {
				return fmt.Errorf("store document %s: %w", doc.DocumentURL, err)
			}
			a.logger.Debug("document stored",
				zap.String("id", id),
				zap.String("url", doc.DocumentURL),
			)
		}
	}
	return nil
}
