package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"pagestack/internal/convert"
	"pagestack/internal/pkg/logger"
	"pagestack/internal/ports"
	"pagestack/internal/store"
)

type Deps struct {
	Jobs      store.JobStore
	Artifacts ports.ArtifactStore
	Conv      *convert.Orchestrator
	Log       *logger.Logger

	// Pool is optional; when present the deep health check pings Postgres.
	Pool *pgxpool.Pool
}

type Handler struct {
	jobs      store.JobStore
	artifacts ports.ArtifactStore
	conv      *convert.Orchestrator
	log       *logger.Logger
	pool      *pgxpool.Pool
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		jobs:      d.Jobs,
		artifacts: d.Artifacts,
		conv:      d.Conv,
		log:       log.WithComponent("httpapi"),
		pool:      d.Pool,
	}
}
