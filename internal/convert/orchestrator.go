package convert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagestack/internal/pkg/errors"
	"pagestack/internal/pkg/logger"
	"pagestack/internal/ports"
	"pagestack/internal/store"
)

// Deps holds the orchestrator's collaborators.
type Deps struct {
	Jobs      store.JobStore
	Artifacts ports.ArtifactStore
	Renderer  Renderer
	Fetcher   *Fetcher
	Log       *logger.Logger

	// DPI is the rasterization resolution. Zero means DefaultDPI.
	DPI float64
	// MaxConcurrent caps in-flight deferred conversions. Zero means
	// unbounded: every submission starts its own pipeline immediately,
	// limited only by host resources.
	MaxConcurrent int
}

// Orchestrator is the job state machine. It creates the job record, picks
// the synchronous or background execution path, drives fetch, render and
// compose, and commits exactly one terminal outcome per job.
type Orchestrator struct {
	jobs      store.JobStore
	artifacts ports.ArtifactStore
	renderer  Renderer
	fetcher   *Fetcher
	log       *logger.Logger
	dpi       float64

	sem chan struct{}
	wg  sync.WaitGroup
}

func NewOrchestrator(d Deps) *Orchestrator {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	fetcher := d.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(DefaultFetchTimeout)
	}
	dpi := d.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	o := &Orchestrator{
		jobs:      d.Jobs,
		artifacts: d.Artifacts,
		renderer:  d.Renderer,
		fetcher:   fetcher,
		log:       log.WithComponent("orchestrator"),
		dpi:       dpi,
	}
	if d.MaxConcurrent > 0 {
		o.sem = make(chan struct{}, d.MaxConcurrent)
	}
	return o
}

// Submit creates the job record and starts the conversion. The record is
// persisted with status processing before any work begins, so a poll issued
// immediately after Submit returns always sees the job.
//
// Inline payloads convert synchronously within the call; remote references
// convert in a supervised background goroutine. In both cases pipeline
// failures land in the job record, never in Submit's error: a non-nil error
// here means the record itself could not be persisted and no job exists.
func (o *Orchestrator) Submit(ctx context.Context, src Source) (store.Job, error) {
	job := store.Job{
		ID:        uuid.NewString(),
		Status:    store.StatusProcessing,
		SourceURL: src.URL,
		CreatedAt: time.Now().UTC(),
	}

	if err := o.jobs.Create(ctx, job); err != nil {
		return store.Job{}, errors.Wrap(err, "convert.submit", "failed to persist job record")
	}

	if src.Inline() {
		// Detached from the request context: once the record exists the
		// terminal write must land even if the caller disconnects mid-render.
		o.run(logger.ContextWithJobID(context.WithoutCancel(ctx), job.ID), job.ID, src)
	} else {
		o.wg.Add(1)
		go o.supervise(job.ID, src)
	}

	return job, nil
}

// Drain blocks until all in-flight background conversions finish or ctx
// expires. Wired into the shutdown manager.
func (o *Orchestrator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// supervise runs a deferred conversion detached from the request that
// created it.
func (o *Orchestrator) supervise(jobID string, src Source) {
	defer o.wg.Done()

	if o.sem != nil {
		o.sem <- struct{}{}
		defer func() { <-o.sem }()
	}

	o.run(logger.ContextWithJobID(context.Background(), jobID), jobID, src)
}

// run executes the pipeline with panic containment on both paths. A panic
// in the render engine resolves the job to failed instead of escaping to
// the caller and leaving the record stuck at processing.
func (o *Orchestrator) run(ctx context.Context, jobID string, src Source) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, jobID, errors.Internalf("conversion panicked: %v", r))
		}
	}()

	o.execute(ctx, jobID, src)
}

// execute runs fetch, render, compose and artifact write, then commits the
// terminal status. Once started it runs to completion or failure; there is
// no cancellation and only the fetch phase is time-bounded.
func (o *Orchestrator) execute(ctx context.Context, jobID string, src Source) {
	log := o.log.WithJobID(jobID)
	start := time.Now()

	data := src.Data
	if !src.Inline() {
		log.Debug("downloading document", "url", src.URL)
		fetched, err := o.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			o.fail(ctx, jobID, err)
			return
		}
		data = fetched
	}

	composite, err := o.convert(data)
	if err != nil {
		o.fail(ctx, jobID, err)
		return
	}

	path, err := o.artifacts.Write(ctx, jobID, composite.Data)
	if err != nil {
		o.fail(ctx, jobID, errors.Wrap(err, "convert.store", "failed to write artifact"))
		return
	}

	if err := o.jobs.MarkCompleted(ctx, jobID, path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The job was deleted while converting: the delete wins, so the
			// just-written artifact is discarded instead of being orphaned.
			_ = o.artifacts.Delete(ctx, jobID)
			log.Info("job record gone before completion, artifact discarded")
			return
		}
		log.LogError(ctx, "failed to mark job completed", err)
		return
	}

	log.Info("conversion completed",
		"width", composite.Width,
		"height", composite.Height,
		"bytes", len(composite.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// convert renders every page and stacks the rasters into one image.
// A single bad page fails the whole document; a zero-page document fails
// composition rather than producing an empty artifact.
func (o *Orchestrator) convert(data []byte) (*CompositeImage, error) {
	doc, err := o.renderer.Open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	count := doc.PageCount()
	rasters := make([]*PageRaster, 0, count)
	for i := 0; i < count; i++ {
		raster, err := doc.RenderPage(i, o.dpi)
		if err != nil {
			return nil, err
		}
		rasters = append(rasters, raster)
	}

	return Compose(rasters)
}

// fail commits the failed terminal state with the causing error's message.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) {
	log := o.log.WithJobID(jobID)

	msg := cause.Error()
	if len(msg) > 2000 {
		msg = msg[:2000]
	}

	var convErr *errors.Error
	if errors.As(cause, &convErr) {
		log.Error("job failed",
			"code", string(convErr.Code),
			"op", convErr.Op,
			"message", convErr.Message,
		)
	} else {
		log.Error("job failed", "error", msg)
	}

	if err := o.jobs.MarkFailed(ctx, jobID, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("job record gone before failure could be recorded")
			return
		}
		log.LogError(ctx, "failed to mark job failed", err)
	}
}
