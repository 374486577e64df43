package store

import "time"

// Status is the lifecycle state of a conversion job.
type Status string

const (
	// StatusProcessing is the initial state, set before any work starts.
	StatusProcessing Status = "processing"
	// StatusCompleted is terminal; the artifact exists.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal; ErrorMessage holds the cause.
	StatusFailed Status = "failed"
)

// Job is the durable record of one conversion request.
type Job struct {
	ID string
	// Status transitions exactly once, from processing to a terminal state.
	Status Status
	// ArtifactPath is the storage key of the composite image.
	// Set if and only if Status is completed.
	ArtifactPath string
	// SourceURL is the remote document reference; empty for inline payloads.
	SourceURL string
	// ErrorMessage is set if and only if Status is failed.
	ErrorMessage string
	CreatedAt    time.Time
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
