package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	want := []byte("TOTAL\t{\"lines\": 3}\n")
	if err := p.Save(ctx, "task-state/weekly/20170220090024/crawl.log.analysis.tsjson", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r, err := p.Open(ctx, "task-state/weekly/20170220090024/crawl.log.analysis.tsjson")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close() //nolint:errcheck
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("round trip mismatch: got %q want %q", got, want)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	t.Parallel()

	p, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Save(context.Background(), "../escape.txt", []byte("nope")); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := p.Open(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestNewCreatesMissingBaseDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "nested", "out")
	if _, err := New(Config{BaseDir: base}); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected base dir to exist: %v", err)
	}
}

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty base dir")
	}
}
