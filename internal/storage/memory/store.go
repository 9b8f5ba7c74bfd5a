// Package memory implements an in-memory storage provider for tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Provider stores objects in a map, guarded for concurrent mappers.
type Provider struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an empty in-memory provider.
func New() *Provider {
	return &Provider{objects: make(map[string][]byte)}
}

// Put seeds an object, for arranging test inputs.
func (p *Provider) Put(path string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[path] = append([]byte(nil), data...)
}

// Open returns a reader over a stored object.
func (p *Provider) Open(_ context.Context, path string) (io.ReadCloser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %q not found", path)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}

// Save stores a copy of data under path.
func (p *Provider) Save(_ context.Context, path string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[path] = append([]byte(nil), data...)
	return nil
}

// Get returns a stored object and whether it exists.
func (p *Provider) Get(path string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.objects[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
