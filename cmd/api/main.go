package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"pagestack/internal/convert"
	"pagestack/internal/httpapi"
	"pagestack/internal/httpapi/util"
	"pagestack/internal/pkg/logger"
	"pagestack/internal/pkg/shutdown"
	"pagestack/internal/storage"
	"pagestack/internal/store"
)

func main() {
	// .env is optional; deployments normally use the process environment.
	_ = godotenv.Load()

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       util.Env("LOG_LEVEL", "info"),
		Format:      util.Env("LOG_FORMAT", "json"),
		ServiceName: "pagestack-api",
		AddSource:   util.Env("LOG_SOURCE", "false") == "true",
	})

	log.Info("starting pagestack API",
		"version", "0.1.0",
	)

	// Load configuration
	httpPort := util.Env("HTTP_PORT", "8080")
	dpi, err := strconv.ParseFloat(util.Env("CONVERT_DPI", "144"), 64)
	if err != nil || dpi <= 0 {
		log.LogFatal("invalid CONVERT_DPI", err)
	}
	maxConcurrent, err := strconv.Atoi(util.Env("MAX_CONCURRENT_CONVERSIONS", "0"))
	if err != nil || maxConcurrent < 0 {
		log.LogFatal("invalid MAX_CONCURRENT_CONVERSIONS", err)
	}

	ctx := context.Background()

	// Initialize shutdown manager
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Open the job store
	var (
		jobs store.JobStore
		pool *pgxpool.Pool
	)
	if util.Env("JOB_STORE", "postgres") == "memory" {
		log.Info("using in-memory job store")
		jobs = store.NewMemoryStore()
	} else {
		log.Info("connecting to PostgreSQL")
		pg, err := store.NewPostgresStore(ctx, mustEnv(log, "DATABASE_URL"))
		if err != nil {
			log.LogFatal("failed to open job store", err)
		}
		jobs = pg
		pool = pg.Pool()
		log.Info("PostgreSQL connected")
	}
	shutdownMgr.Register("job-store", func(ctx context.Context) error {
		jobs.Close()
		return nil
	})

	// Initialize artifact storage
	log.Info("initializing artifact store")
	artifacts, err := storage.NewStore()
	if err != nil {
		log.LogFatal("failed to initialize artifact store", err)
	}
	log.Info("artifact store initialized", "provider", artifacts.Provider())

	// Build the conversion orchestrator
	conv := convert.NewOrchestrator(convert.Deps{
		Jobs:          jobs,
		Artifacts:     artifacts,
		Renderer:      convert.NewPDFRenderer(),
		Log:           log,
		DPI:           dpi,
		MaxConcurrent: maxConcurrent,
	})
	shutdownMgr.Register("pipeline-drain", func(ctx context.Context) error {
		return conv.Drain(ctx)
	})

	// Create HTTP router
	router := httpapi.NewRouter(httpapi.Deps{
		Jobs:      jobs,
		Artifacts: artifacts,
		Conv:      conv,
		Log:       log,
		Pool:      pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + httpPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Register server shutdown
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", httpPort,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	// Wait for shutdown signal
	shutdownMgr.Wait()
}

// mustEnv gets a required environment variable or exits.
func mustEnv(log *logger.Logger, key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Error("missing required environment variable", "key", key)
		os.Exit(1)
	}
	return v
}
