// Package storage defines the interface for resolving analysis inputs and
// outputs. The abstraction keeps the pipeline independent of where log files
// and artifacts live (local filesystem, Google Cloud Storage, or memory in
// tests).
package storage

import (
	"context"
	"io"
)

// Provider reads input artifacts and persists output artifacts by path.
type Provider interface {
	// Open returns a reader over the object at the given path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Save writes data to the given path, replacing any existing object.
	Save(ctx context.Context, path string, data []byte) error
}
