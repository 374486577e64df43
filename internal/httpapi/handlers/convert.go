package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pagestack/internal/convert"
	"pagestack/internal/httpkit"
	"pagestack/internal/pkg/errors"
	"pagestack/internal/ports"
	"pagestack/internal/store"
)

type ConvertRequest struct {
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

type ConvertResponse struct {
	ID               string `json:"id"`
	StatusEndpoint   string `json:"statusEndpoint"`
	ArtifactEndpoint string `json:"artifactEndpoint"`
	DeleteEndpoint   string `json:"deleteEndpoint"`
}

type StatusResponse struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// SubmitConversion accepts a document by remote url or inline base64 payload
// and starts a conversion job. Validation failures are the only errors the
// caller sees directly; pipeline failures are reported through the job
// record and must be discovered by polling.
func (h *Handler) SubmitConversion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ConvertRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	src, err := convert.ResolveSource(req.URL, req.Payload)
	if err != nil {
		httpkit.WriteCodedErr(w, err)
		return
	}

	job, err := h.conv.Submit(ctx, src)
	if err != nil {
		h.log.FromContext(ctx).LogError(ctx, "failed to submit conversion", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to create job", nil)
		return
	}

	httpkit.WriteJSON(w, 201, ConvertResponse{
		ID:               job.ID,
		StatusEndpoint:   "/status/" + job.ID,
		ArtifactEndpoint: "/artifact/" + job.ID,
		DeleteEndpoint:   "/artifact/" + job.ID,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpkit.WriteErr(w, 404, "NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
			return
		}
		h.log.FromContext(ctx).LogError(ctx, "failed to load job", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to load job", nil)
		return
	}

	httpkit.WriteJSON(w, 200, StatusResponse{
		ID:           job.ID,
		Status:       string(job.Status),
		CreatedAt:    job.CreatedAt,
		ErrorMessage: job.ErrorMessage,
	})
}

// GetArtifact serves the composite image for a completed job. While the job
// is still processing it answers 202 so clients keep polling; a failed job
// answers 500 with the recorded error, never partial bytes.
func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpkit.WriteErr(w, 404, "NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
			return
		}
		h.log.FromContext(ctx).LogError(ctx, "failed to load job", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to load job", nil)
		return
	}

	switch job.Status {
	case store.StatusProcessing:
		httpkit.WriteJSON(w, 202, StatusResponse{
			ID:        job.ID,
			Status:    string(job.Status),
			CreatedAt: job.CreatedAt,
		})
		return
	case store.StatusFailed:
		httpkit.WriteErr(w, 500, "CONVERSION_FAILED", job.ErrorMessage, map[string]any{"job_id": jobID})
		return
	}

	data, err := h.artifacts.Read(ctx, jobID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpkit.WriteErr(w, 404, "ARTIFACT_MISSING", "artifact file missing", map[string]any{"job_id": jobID})
			return
		}
		h.log.FromContext(ctx).LogError(ctx, "failed to read artifact", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to read artifact", nil)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// DeleteJob removes the artifact bytes and the job record. From the caller's
// perspective the removal is all-or-nothing: a 200 means neither survives.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	if _, err := h.jobs.Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpkit.WriteErr(w, 404, "NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
			return
		}
		h.log.FromContext(ctx).LogError(ctx, "failed to load job", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to load job", nil)
		return
	}

	// Artifact first, record second: a crash in between leaves a record
	// whose artifact fetch 404s, never unreachable orphan bytes.
	if err := h.artifacts.Delete(ctx, jobID); err != nil && !errors.Is(err, ports.ErrNotFound) {
		h.log.FromContext(ctx).LogError(ctx, "failed to delete artifact", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to delete artifact", nil)
		return
	}

	if err := h.jobs.Delete(ctx, jobID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.FromContext(ctx).LogError(ctx, "failed to delete job", err)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to delete job", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"message": "job deleted",
		"id":      jobID,
	})
}
