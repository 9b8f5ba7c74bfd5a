// Package docstore persists extracted document records in Postgres, where
// the downstream document-harvesting workflow picks them up.
package docstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openwa/crawl-log-analyser/internal/documents"
)

// DB is the subset of pgxpool.Pool the store uses, narrowed so tests can
// substitute a mock pool.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store writes document records to the documents table.
//
// Expected schema:
//
//	CREATE TABLE documents (
//	    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//	    wayback_timestamp TEXT NOT NULL,
//	    landing_page_url TEXT NOT NULL,
//	    document_url TEXT NOT NULL,
//	    filename TEXT NOT NULL,
//	    size BIGINT NOT NULL,
//	    job_name TEXT NOT NULL,
//	    launch_id TEXT NOT NULL,
//	    source TEXT NOT NULL,
//	    created_at TIMESTAMPTZ DEFAULT NOW()
//	);
type Store struct {
	db DB
}

// New opens a pgx connection pool for the given DSN.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return &Store{db: pool}, nil
}

// NewWithDB wraps an existing pool-compatible handle.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

// Insert stores one document record and returns its generated ID.
func (s *Store) Insert(ctx context.Context, doc documents.Record) (string, error) {
	query := `
		INSERT INTO documents (
			wayback_timestamp, landing_page_url, document_url,
			filename, size, job_name, launch_id, source
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id string
	err := s.db.QueryRow(ctx, query,
		doc.WaybackTimestamp,
		doc.LandingPageURL,
		doc.DocumentURL,
		doc.Filename,
		doc.Size,
		doc.JobName,
		doc.LaunchID,
		doc.Source,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.db.Close()
}
