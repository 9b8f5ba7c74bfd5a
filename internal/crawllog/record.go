// Package crawllog parses Heritrix-style crawl log lines and derives the
// low-cardinality statistics that can be aggregated across many lines.
package crawllog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// numFields is the fixed field count of the crawl log schema. The twelfth
// field consumes the remainder of the line.
const numFields = 12

var fieldSep = regexp.MustCompile(" +")

// ParseError reports a line that violates the 12-field schema. The schema is
// a hard contract, so callers treat this as fatal for the line rather than
// skipping it.
type ParseError struct {
	Line   string
	Fields int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("crawl log line has %d fields, want %d", e.Fields, numFields)
}

// Record is one parsed crawl log line.
type Record struct {
	Timestamp             string
	StatusCode            string
	ContentLength         string
	URL                   string
	HopPath               string
	Via                   string
	Mime                  string
	Thread                string
	StartTimePlusDuration string
	ContentHash           string
	Source                string
	AnnotationString      string
	Annotations           []string
	ExtraJSON             string
}

// ParseLine splits a raw log line into exactly twelve space-run-delimited
// fields and post-processes the annotation field, which may carry a trailing
// JSON blob appended by the crawler.
func ParseLine(line string) (*Record, error) {
	fields := fieldSep.Split(strings.TrimSpace(line), numFields)
	if len(fields) < numFields {
		return nil, &ParseError{Line: line, Fields: len(fields)}
	}
	r := &Record{
		Timestamp:             fields[0],
		StatusCode:            fields[1],
		ContentLength:         fields[2],
		URL:                   fields[3],
		HopPath:               fields[4],
		Via:                   fields[5],
		Mime:                  fields[6],
		Thread:                fields[7],
		StartTimePlusDuration: fields[8],
		ContentHash:           fields[9],
		Source:                fields[10],
		AnnotationString:      fields[11],
	}

	// The extra-info JSON rides on the annotation field: either an empty
	// object marker to strip, or a real object split off at its first ` {"`.
	switch {
	case strings.HasSuffix(r.AnnotationString, " {}"):
		r.AnnotationString = r.AnnotationString[:len(r.AnnotationString)-3]
	case strings.Contains(r.AnnotationString, ` {"`) && strings.HasSuffix(r.AnnotationString, "}"):
		i := strings.Index(r.AnnotationString, ` {"`)
		r.ExtraJSON = `{"` + r.AnnotationString[i+3:]
		r.AnnotationString = r.AnnotationString[:i]
	}
	r.Annotations = strings.Split(r.AnnotationString, ",")

	return r, nil
}

// Host extracts the host, depending on the protocol. An unparseable URL
// yields an empty host rather than failing the record.
func (r *Record) Host() string {
	if strings.HasPrefix(r.URL, "dns:") {
		return r.URL[4:]
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Hour rounds the record timestamp down to an hour-granularity bucket key.
func (r *Record) Hour() string {
	ts := r.Timestamp
	if len(ts) > 13 {
		ts = ts[:13]
	}
	return ts + ":00:00"
}
