package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openwa/crawl-log-analyser/internal/documents"
	"github.com/openwa/crawl-log-analyser/internal/mapreduce"
	"github.com/openwa/crawl-log-analyser/internal/publisher"
	pubmemory "github.com/openwa/crawl-log-analyser/internal/publisher/memory"
	"github.com/openwa/crawl-log-analyser/internal/storage/memory"
	"github.com/openwa/crawl-log-analyser/internal/surt"
)

const testFeed = `[{"watched": true, "seeds": ["http://example.org/watched"]}]`

const testLog = `2016-01-27T21:19:39.200Z 200 26941 http://example.org/watched/doc.pdf LLE http://example.org/watched/index.html application/pdf #042 20160127211938966+230 sha1:AAA tid:1:http://example.org/ ip:1.2.3.4,3t,- {}
2016-01-27T21:19:40.100Z 404 324 http://example.org/missing.png IE http://example.org/ text/html #189 20160127211939966+130 sha1:BBB tid:1:http://example.org/ - {}
2016-01-27T22:01:02.000Z 200 512 dns:example.org P - text/dns #001 20160127220101000+50 sha1:CCC tid:1:http://example.org/ - {}
`

type sinkRecorder struct {
	docs []documents.Record
}

func (s *sinkRecorder) Insert(_ context.Context, doc documents.Record) (string, error) {
	s.docs = append(s.docs, doc)
	return "stored-id", nil
}

func newAnalysis(t *testing.T, store *memory.Provider, pub publisher.Publisher, sink DocumentSink) *Analysis {
	t.Helper()
	return New(Config{
		Job:         "weekly",
		LaunchID:    "20170220090024",
		LogPath:     "logs/crawl.log",
		TargetsPath: "feeds/crawl-feed.json",
		Concurrency: 2,
	}, store, surt.New(), pub, sink, zap.NewNop())
}

func seedInputs(store *memory.Provider) {
	store.Put("logs/crawl.log", []byte(testLog))
	store.Put("feeds/crawl-feed.json", []byte(testFeed))
}

func parseArtifact(t *testing.T, data []byte) map[string][]string {
	t.Helper()
	out := make(map[string][]string)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		key, value, found := strings.Cut(line, "\t")
		require.True(t, found, "artifact line %q lacks a tab", line)
		out[key] = append(out[key], value)
	}
	return out
}

func TestRunProducesArtifact(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedInputs(store)
	a := newAnalysis(t, store, nil, nil)

	require.NoError(t, a.Run(context.Background()))

	data, ok := store.Get("task-state/weekly/20170220090024/crawl.log.analysis.tsjson")
	require.True(t, ok, "expected artifact to be written")
	artifact := parseArtifact(t, data)

	// One summary line per reduce key plus the document pass-through.
	require.Len(t, artifact["TOTAL"], 1)
	require.Len(t, artifact["BY-HOUR 2016-01-27T21:00:00"], 1)
	require.Len(t, artifact["BY-HOUR 2016-01-27T22:00:00"], 1)
	require.Len(t, artifact["BY-HOST example.org"], 1)
	require.Len(t, artifact["DOCUMENT"], 1)

	var total mapreduce.Summary
	require.NoError(t, json.Unmarshal([]byte(artifact["TOTAL"][0]), &total))
	require.Equal(t, 3, total["lines"])
	require.Equal(t, 2, total["status_code:200"])
	require.Equal(t, 1, total["status_code:404"])
	require.Equal(t, 1, total["tries:3t"])
	require.Equal(t, 1, total["ip:1.2.3.4"])

	var doc documents.Record
	require.NoError(t, json.Unmarshal([]byte(artifact["DOCUMENT"][0]), &doc))
	require.Equal(t, "doc.pdf", doc.Filename)
	require.Equal(t, "weekly", doc.JobName)
	require.Equal(t, "20170220090024", doc.LaunchID)
}

func TestRunIsRepeatable(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedInputs(store)
	a := newAnalysis(t, store, nil, nil)

	require.NoError(t, a.Run(context.Background()))
	first, ok := store.Get(a.OutputPath())
	require.True(t, ok)

	// A retried run must overwrite the artifact with identical bytes.
	require.NoError(t, a.Run(context.Background()))
	second, ok := store.Get(a.OutputPath())
	require.True(t, ok)
	require.Equal(t, first, second)
}

func TestRunFansOutDocuments(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedInputs(store)
	pub := pubmemory.New()
	sink := &sinkRecorder{}
	a := newAnalysis(t, store, pub, sink)

	require.NoError(t, a.Run(context.Background()))

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	var published documents.Record
	require.NoError(t, json.Unmarshal(msgs[0], &published))
	require.Equal(t, "http://example.org/watched/doc.pdf", published.DocumentURL)

	require.Len(t, sink.docs, 1)
	require.Equal(t, published, sink.docs[0])
}

func TestRunFailsOnMalformedLine(t *testing.T) {
	t.Parallel()

	store := memory.New()
	store.Put("logs/crawl.log", []byte("this line is not a crawl log line\n"))
	store.Put("feeds/crawl-feed.json", []byte(testFeed))
	a := newAnalysis(t, store, nil, nil)

	err := a.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")

	_, ok := store.Get(a.OutputPath())
	require.False(t, ok, "no artifact should be written for a failed run")
}

func TestRunFailsOnMissingInputs(t *testing.T) {
	t.Parallel()

	store := memory.New()
	store.Put("feeds/crawl-feed.json", []byte(testFeed))
	a := newAnalysis(t, store, nil, nil)
	require.Error(t, a.Run(context.Background()))

	store2 := memory.New()
	store2.Put("logs/crawl.log", []byte(testLog))
	a2 := newAnalysis(t, store2, nil, nil)
	require.Error(t, a2.Run(context.Background()))
}

func TestOutputPathShape(t *testing.T) {
	t.Parallel()

	a := New(Config{
		Job:          "weekly",
		LaunchID:     "20170220090024",
		LogPath:      "some/dir/crawl.log.cp00001-20170211224931",
		TargetsPath:  "feeds/feed.json",
		OutputPrefix: "task-state",
	}, memory.New(), surt.New(), nil, nil, zap.NewNop())

	require.Equal(t,
		"task-state/weekly/20170220090024/crawl.log.cp00001-20170211224931.analysis.tsjson",
		a.OutputPath(),
	)
}
