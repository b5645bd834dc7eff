// Package store persists workspace buffers and publication records.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("store: not found")

// Publication records one publish action.
type Publication struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a per-project key/value store for raw string settings plus a
// log of publications.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, project, key string) (string, error)
	// Set writes value for key, replacing any previous value.
	Set(ctx context.Context, project, key, value string) error
	// All returns every key/value pair stored for project.
	All(ctx context.Context, project string) (map[string]string, error)
	// RecordPublication appends a publication record.
	RecordPublication(ctx context.Context, p Publication) error
	// Publications lists a project's publications, newest first.
	Publications(ctx context.Context, project string) ([]Publication, error)
	// Close releases the underlying connection.
	Close() error
}
