package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"pagestack/internal/ports"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Client implements ports.ArtifactStore backed by Google Drive.
// Artifacts are stored as <jobID>.jpg inside the configured folder and
// located by name, so the store stays keyed by job id like localfs.
type Client struct {
	srv      *drive.Service
	folderID string
}

func NewClient(srv *drive.Service, folderID string) *Client {
	return &Client{srv: srv, folderID: folderID}
}

func (c *Client) Provider() string { return "gdrive" }

func (c *Client) name(jobID string) string {
	return jobID + ".jpg"
}

// findFileID resolves the Drive file id for a job's artifact, or "" if absent.
func (c *Client) findFileID(ctx context.Context, jobID string) (string, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", c.name(jobID))
	if c.folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", c.folderID)
	}

	list, err := c.srv.Files.List().
		Q(q).
		Fields("files(id)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("gdrive lookup failed: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (c *Client) Write(ctx context.Context, jobID string, data []byte) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("job id is required")
	}

	// Replace any stale artifact from a previous run of the same id.
	if existing, err := c.findFileID(ctx, jobID); err == nil && existing != "" {
		_ = c.srv.Files.Delete(existing).SupportsAllDrives(true).Context(ctx).Do()
	}

	file := &drive.File{Name: c.name(jobID)}
	if c.folderID != "" {
		file.Parents = []string{c.folderID}
	}

	_, err := c.srv.Files.Create(file).
		Media(bytes.NewReader(data), googleapi.ContentType("image/jpeg")).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("gdrive upload failed: %w", err)
	}

	return c.name(jobID), nil
}

func (c *Client) Read(ctx context.Context, jobID string) ([]byte, error) {
	fileID, err := c.findFileID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, ports.ErrNotFound
	}

	resp, err := c.srv.Files.Get(fileID).
		SupportsAllDrives(true).
		Download()
	if err != nil {
		return nil, fmt.Errorf("gdrive download failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (c *Client) Exists(ctx context.Context, jobID string) (bool, error) {
	fileID, err := c.findFileID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return fileID != "", nil
}

func (c *Client) Delete(ctx context.Context, jobID string) error {
	fileID, err := c.findFileID(ctx, jobID)
	if err != nil {
		return err
	}
	if fileID == "" {
		return ports.ErrNotFound
	}

	return c.srv.Files.Delete(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}
