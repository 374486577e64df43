package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pagestack/internal/convert"
	"pagestack/internal/httpapi/handlers"
	"pagestack/internal/httpkit"
	"pagestack/internal/pkg/logger"
	"pagestack/internal/pkg/middleware"
	"pagestack/internal/ports"
	"pagestack/internal/store"
)

type Deps struct {
	Jobs      store.JobStore
	Artifacts ports.ArtifactStore
	Conv      *convert.Orchestrator
	Log       *logger.Logger
	Pool      *pgxpool.Pool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{"*"})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(handlers.Deps{
		Jobs:      d.Jobs,
		Artifacts: d.Artifacts,
		Conv:      d.Conv,
		Log:       d.Log,
		Pool:      d.Pool,
	})

	r.Get("/health", h.Health)

	r.Post("/convert", h.SubmitConversion)
	r.Get("/status/{jobId}", h.GetStatus)
	r.Get("/artifact/{jobId}", h.GetArtifact)
	r.Delete("/artifact/{jobId}", h.DeleteJob)

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
