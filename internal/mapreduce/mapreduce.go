// Package mapreduce implements the log-analysis map and reduce stages.
// Mapper and reducer are pure functions of their inputs, so the surrounding
// driver can re-run failed attempts and partial work without changing the
// output.
package mapreduce

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openwa/crawl-log-analyser/internal/crawllog"
	"github.com/openwa/crawl-log-analyser/internal/documents"
)

// Reduce key namespaces. DOCUMENT values pass through the reducer unchanged;
// everything else folds into a Summary.
const (
	KeyTotal    = "TOTAL"
	KeyByHour   = "BY-HOUR"
	KeyByHost   = "BY-HOST"
	KeyBySource = "BY-SOURCE"
	KeyDocument = "DOCUMENT"
)

// KeyValue is one keyed emission from the map stage.
type KeyValue struct {
	Key   string
	Value string
}

// Mapper turns one raw log line into keyed emissions. Stateless once built,
// so any number of mappers can run over independent line splits.
type Mapper struct {
	extractor *documents.Extractor
}

// NewMapper wraps a pre-built document extractor.
func NewMapper(extractor *documents.Extractor) *Mapper {
	return &Mapper{extractor: extractor}
}

// Map parses a line and emits the four statistics pairs, plus a DOCUMENT
// pair when the line is a watched document download.
func (m *Mapper) Map(line string) ([]KeyValue, error) {
	rec, err := crawllog.ParseLine(line)
	if err != nil {
		return nil, err
	}

	stats, err := json.Marshal(rec.Stats())
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	bag := string(stats)
	out := []KeyValue{
		{Key: KeyTotal, Value: bag},
		{Key: KeyByHour + " " + rec.Hour(), Value: bag},
		{Key: KeyByHost + " " + rec.Host(), Value: bag},
		{Key: KeyBySource + " " + rec.Source, Value: bag},
	}

	doc, err := m.extractor.Extract(rec)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		encoded, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal document: %w", err)
		}
		out = append(out, KeyValue{Key: KeyDocument, Value: string(encoded)})
	}
	return out, nil
}

// Summary counts composite statistic keys under one reduce key.
type Summary map[string]int

// Observe increments the composite key for one (property, value) pair. A
// presence flag (empty value) counts under the bare property name.
func (s Summary) Observe(property, value string) {
	key := property
	if value != "" {
		key = property + ":" + value
	}
	s[key]++
}

// Reduce folds the grouped values for one key into its emissions. DOCUMENT
// keys pass every value through unchanged, N in, N out. All other keys fold
// into one Summary emission; the fold is a commutative count, so value order
// and re-execution cannot change the result.
func Reduce(key string, values []string) ([]KeyValue, error) {
	if strings.HasPrefix(key, KeyDocument) {
		out := make([]KeyValue, 0, len(values))
		for _, v := range values {
			out = append(out, KeyValue{Key: key, Value: v})
		}
		return out, nil
	}

	summary := Summary{}
	for _, v := range values {
		var bag crawllog.Stats
		if err := json.Unmarshal([]byte(v), &bag); err != nil {
			return nil, fmt.Errorf("unmarshal stats bag under %q: %w", key, err)
		}
		for property, value := range bag {
			summary.Observe(property, value)
		}
	}
	encoded, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return []KeyValue{{Key: key, Value: string(encoded)}}, nil
}
