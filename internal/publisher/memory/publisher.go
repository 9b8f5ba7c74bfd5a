// Package memory implements an in-process publisher for tests.
package memory

import (
	"context"
	"strconv"
	"sync"
)

// Publisher records published payloads in order.
type Publisher struct {
	mu       sync.Mutex
	messages [][]byte
}

// New creates an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the payload and returns its position as the message ID.
func (p *Publisher) Publish(_ context.Context, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, append([]byte(nil), payload...))
	return strconv.Itoa(len(p.messages)), nil
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.messages))
	copy(out, p.messages)
	return out
}
