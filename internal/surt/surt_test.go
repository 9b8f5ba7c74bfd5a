package surt

import (
	"strings"
	"testing"
)

func TestCanonicalizeReversesHost(t *testing.T) {
	t.Parallel()

	tr := New()
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "simple", url: "http://example.org/watched", want: "org,example)/watched"},
		{name: "subdomain", url: "https://data.example.org/a/b.pdf", want: "org,example,data)/a/b.pdf"},
		{name: "case folded", url: "HTTP://Example.ORG/Watched", want: "org,example)/watched"},
		{name: "no path", url: "http://example.org", want: "org,example)"},
		{name: "dns record", url: "dns:example.org", want: "dns:example.org"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tr.Canonicalize(tt.url); got != tt.want {
				t.Fatalf("Canonicalize(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestCanonicalizePreservesContainment(t *testing.T) {
	t.Parallel()

	tr := New()
	seed := tr.Canonicalize("http://example.org/watched")
	doc := tr.Canonicalize("http://example.org/watched/reports/doc.pdf")
	outside := tr.Canonicalize("http://example.org/other/doc.pdf")

	if !strings.HasPrefix(doc, seed) {
		t.Fatalf("expected %q to be contained by %q", doc, seed)
	}
	if strings.HasPrefix(outside, seed) {
		t.Fatalf("expected %q to fall outside %q", outside, seed)
	}
}
