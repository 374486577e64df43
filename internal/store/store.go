// Package store persists conversion job records.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no job row matches the given id, or when a
// terminal update targets a row that is gone or already terminal.
var ErrNotFound = errors.New("job not found")

// JobStore is the durable keyed record of job metadata and status.
// All operations are keyed by job id and individually atomic.
type JobStore interface {
	// Create persists a new job row. The row is visible to Get as soon as
	// Create returns, before any conversion work starts.
	Create(ctx context.Context, job Job) error

	// Get returns the job with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Job, error)

	// MarkCompleted transitions a processing job to completed and records the
	// artifact path. Returns ErrNotFound if the row is absent or already
	// terminal; the transition never re-enters processing.
	MarkCompleted(ctx context.Context, id, artifactPath string) error

	// MarkFailed transitions a processing job to failed with the causing
	// error message. Same ErrNotFound semantics as MarkCompleted.
	MarkFailed(ctx context.Context, id, errorMessage string) error

	// Delete removes the job row. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close()
}
