package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no artifact exists for the given job id.
var ErrNotFound = errors.New("artifact not found")

// ArtifactStore persists composite image bytes keyed by job id.
// Implementations: localfs, gdrive.
type ArtifactStore interface {
	Provider() string

	// Write stores the artifact and returns its storage key.
	Write(ctx context.Context, jobID string, data []byte) (string, error)

	// Read returns the artifact bytes, or ErrNotFound.
	Read(ctx context.Context, jobID string) ([]byte, error)

	// Exists reports whether an artifact is stored for the job.
	Exists(ctx context.Context, jobID string) (bool, error)

	// Delete removes the artifact. Returns ErrNotFound if absent.
	Delete(ctx context.Context, jobID string) error
}
