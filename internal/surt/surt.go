// Package surt canonicalizes URLs into Sort-friendly URI Reordering
// Transform (SURT) prefix form, e.g. http://example.org/a -> org,example)/a.
// Containment checks over crawl URLs reduce to string prefix checks on the
// transformed form.
package surt

import (
	"net/url"
	"strings"
)

// Canonicalizer maps a URL to its canonical prefix form. Consumers only rely
// on the transform being a pure function that preserves prefix containment,
// so alternative canonicalizers can be injected.
type Canonicalizer interface {
	Canonicalize(rawURL string) string
}

// Transform is the default Canonicalizer.
type Transform struct{}

// New returns the default SURT transform.
func New() *Transform {
	return &Transform{}
}

// Canonicalize lowercases the URL, reverses the host labels and rejoins them
// comma-separated ahead of the path. URLs without a parseable host (dns:
// records and friends) come back lowercased and trimmed, unchanged otherwise.
func (t *Transform) Canonicalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(trimmed)
	}
	labels := strings.Split(strings.ToLower(u.Hostname()), ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ",") + ")" + strings.ToLower(u.EscapedPath())
}
