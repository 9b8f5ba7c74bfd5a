// Package targets builds the watched-seed index from a crawl target feed.
package targets

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/openwa/crawl-log-analyser/internal/surt"
)

// FeedEntry is one element of the target feed document.
type FeedEntry struct {
	Watched bool     `json:"watched"`
	Seeds   []string `json:"seeds"`
}

// Index holds the canonical watched-URL prefixes for one analysis run.
// Built once before any mapper work starts and immutable afterwards.
type Index struct {
	prefixes []string
}

// Build reads a target feed and canonicalizes the union of seeds from
// watched entries. Duplicate seeds collapse to their first occurrence, so
// prefix iteration order follows feed order.
func Build(r io.Reader, canon surt.Canonicalizer) (*Index, error) {
	var feed []FeedEntry
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode target feed: %w", err)
	}

	seen := make(map[string]struct{})
	var prefixes []string
	for _, entry := range feed {
		if !entry.Watched {
			continue
		}
		for _, seed := range entry.Seeds {
			if _, ok := seen[seed]; ok {
				continue
			}
			seen[seed] = struct{}{}
			prefixes = append(prefixes, canon.Canonicalize(seed))
		}
	}
	return &Index{prefixes: prefixes}, nil
}

// Prefixes returns the watched prefixes in construction order.
func (i *Index) Prefixes() []string {
	return i.prefixes
}

// Len reports the number of watched prefixes.
func (i *Index) Len() int {
	return len(i.prefixes)
}
