// Package documents detects downloaded documents that belong to a watched
// seed's web space.
package documents

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/openwa/crawl-log-analyser/internal/crawllog"
	"github.com/openwa/crawl-log-analyser/internal/surt"
	"github.com/openwa/crawl-log-analyser/internal/targets"
)

// Record is one extracted document event. Write-once: the reducer passes it
// through unchanged.
type Record struct {
	WaybackTimestamp string `json:"wayback_timestamp"`
	LandingPageURL   string `json:"landing_page_url"`
	DocumentURL      string `json:"document_url"`
	Filename         string `json:"filename"`
	Size             int64  `json:"size"`
	JobName          string `json:"job_name"`
	LaunchID         string `json:"launch_id"`
	Source           string `json:"source"`
}

// Extractor decides, per record, whether it represents a document download
// under a watched seed. Pure: no side effects beyond the returned record.
type Extractor struct {
	job      string
	launchID string
	index    *targets.Index
	canon    surt.Canonicalizer
}

// NewExtractor builds an Extractor bound to one job launch and a pre-built
// watched-seed index.
func NewExtractor(job, launchID string, index *targets.Index, canon surt.Canonicalizer) *Extractor {
	return &Extractor{job: job, launchID: launchID, index: index, canon: canon}
}

// Extract returns the document record for rec, or nil when rec is not a
// watched document download; absence is the normal outcome for most lines.
// A record that passes the 2xx gate but carries a non-numeric content length
// is a data-integrity problem and surfaces as an error.
func (e *Extractor) Extract(rec *crawllog.Record) (*Record, error) {
	// Skip non-downloads. A `-` or otherwise non-numeric status means the
	// fetch never completed; that record still counts toward statistics.
	status, err := strconv.Atoi(rec.StatusCode)
	if err != nil || status/100 != 2 {
		return nil, nil
	}
	if !strings.Contains(rec.Mime, "application/pdf") {
		return nil, nil
	}

	documentSURT := e.canon.Canonicalize(rec.URL)
	landingPageSURT := e.canon.Canonicalize(rec.Via)
	for _, prefix := range e.index.Prefixes() {
		// Both URIs must sit under the same watched prefix; the first
		// matching prefix claims the document.
		if !strings.HasPrefix(documentSURT, prefix) || !strings.HasPrefix(landingPageSURT, prefix) {
			continue
		}
		size, err := strconv.ParseInt(rec.ContentLength, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("content length %q on 2xx document %s: %w", rec.ContentLength, rec.URL, err)
		}
		return &Record{
			WaybackTimestamp: waybackTimestamp(rec.StartTimePlusDuration),
			LandingPageURL:   rec.Via,
			DocumentURL:      rec.URL,
			Filename:         filename(rec.URL),
			Size:             size,
			JobName:          e.job,
			LaunchID:         e.launchID,
			Source:           rec.Source,
		}, nil
	}
	return nil, nil
}

// waybackTimestamp truncates a start-time-plus-duration value to the 14-digit
// wayback form.
func waybackTimestamp(s string) string {
	if len(s) > 14 {
		return s[:14]
	}
	return s
}

func filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return ""
	}
	return path.Base(u.Path)
}
