package targets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwa/crawl-log-analyser/internal/surt"
)

func TestBuildCollectsWatchedSeeds(t *testing.T) {
	t.Parallel()

	feed := `[
		{"watched": true, "seeds": ["http://example.org/watched", "http://archive.example.net/"]},
		{"watched": false, "seeds": ["http://ignored.example.com/"]},
		{"watched": true, "seeds": ["http://example.org/watched"]}
	]`

	index, err := Build(strings.NewReader(feed), surt.New())
	require.NoError(t, err)

	// Unwatched seeds excluded, duplicates collapsed to first occurrence.
	require.Equal(t, []string{"org,example)/watched", "net,example,archive)/"}, index.Prefixes())
	require.Equal(t, 2, index.Len())
}

func TestBuildRejectsMalformedFeed(t *testing.T) {
	t.Parallel()

	_, err := Build(strings.NewReader(`{"watched": true}`), surt.New())
	require.Error(t, err)
}

func TestBuildEmptyFeed(t *testing.T) {
	t.Parallel()

	index, err := Build(strings.NewReader(`[]`), surt.New())
	require.NoError(t, err)
	require.Zero(t, index.Len())
}
