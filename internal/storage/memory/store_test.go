package memory

import (
	"context"
	"io"
	"testing"
)

func TestPutOpenGet(t *testing.T) {
	t.Parallel()

	p := New()
	p.Put("logs/crawl.log", []byte("line one\n"))

	r, err := p.Open(context.Background(), "logs/crawl.log")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "line one\n" {
		t.Fatalf("unexpected content %q", got)
	}

	if _, ok := p.Get("logs/crawl.log"); !ok {
		t.Fatal("expected object to exist")
	}
	if _, ok := p.Get("missing"); ok {
		t.Fatal("expected missing object")
	}
}

func TestOpenMissingObject(t *testing.T) {
	t.Parallel()

	if _, err := New().Open(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestSaveCopiesData(t *testing.T) {
	t.Parallel()

	p := New()
	data := []byte("mutable")
	if err := p.Save(context.Background(), "obj", data); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data[0] = 'X'

	got, ok := p.Get("obj")
	if !ok || string(got) != "mutable" {
		t.Fatalf("expected stored copy to be isolated, got %q", got)
	}
}
