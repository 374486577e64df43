package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory JobStore for tests and brokerless dev runs.
// It enforces the same forward-only transition rules as the Postgres store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Create(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, id, artifactPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return ErrNotFound
	}
	job.Status = StatusCompleted
	job.ArtifactPath = artifactPath
	job.ErrorMessage = ""
	s.jobs[id] = job
	return nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return ErrNotFound
	}
	job.Status = StatusFailed
	job.ErrorMessage = errorMessage
	job.ArtifactPath = ""
	s.jobs[id] = job
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Close() {}
