// Package gcs implements a storage provider backed by Google Cloud Storage,
// the distributed-filesystem home for crawl logs and analysis artifacts.
package gcs

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// Provider reads and writes analysis artifacts in a GCS bucket.
type Provider struct {
	client *storage.Client
	bucket string
}

// New initializes a GCS client and verifies the bucket is reachable, so a
// misconfigured run fails at startup rather than at output time.
// Authentication comes from Application Default Credentials.
func New(ctx context.Context, bucket string) (*Provider, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q attributes: %w", bucket, err)
	}
	return &Provider{client: client, bucket: bucket}, nil
}

// Open returns a reader over the object at path.
func (p *Provider) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := p.client.Bucket(p.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", p.bucket, path, err)
	}
	return r, nil
}

// Save uploads data to the object at path. Close finalizes the upload, so
// its error is the one that decides success.
func (p *Provider) Save(ctx context.Context, path string, data []byte) error {
	w := p.client.Bucket(p.bucket).Object(path).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", p.bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", p.bucket, path, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}
