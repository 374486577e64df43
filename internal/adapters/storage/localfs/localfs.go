package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pagestack/internal/ports"
)

// LocalFS implements ports.ArtifactStore on the local filesystem.
// Artifacts live under <root>/jobs/<jobID>.jpg.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

func (l *LocalFS) key(jobID string) string {
	return filepath.Join("jobs", jobID+".jpg")
}

func (l *LocalFS) path(jobID string) string {
	return filepath.Join(l.root, l.key(jobID))
}

func (l *LocalFS) Write(ctx context.Context, jobID string, data []byte) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("job id is required")
	}

	dst := l.path(jobID)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(l.key(jobID)), nil
}

func (l *LocalFS) Read(ctx context.Context, jobID string) ([]byte, error) {
	data, err := os.ReadFile(l.path(jobID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (l *LocalFS) Exists(ctx context.Context, jobID string) (bool, error) {
	_, err := os.Stat(l.path(jobID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *LocalFS) Delete(ctx context.Context, jobID string) error {
	err := os.Remove(l.path(jobID))
	if errors.Is(err, os.ErrNotExist) {
		return ports.ErrNotFound
	}
	return err
}
