package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/arcadia-retail/arcadia-retail/internal/observability"
	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/reports"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
	"github.com/arcadia-retail/arcadia-retail/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthMiddleware func(http.Handler) http.Handler
	SalesHandler   *sales.Handler
	RepairsHandler *repairs.Handler
	ReportsHandler *reports.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Arcadia defaults. Health and
// metrics stay outside the authenticated surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Group(func(api chi.Router) {
		if params.AuthMiddleware != nil {
			api.Use(params.AuthMiddleware)
		}
		api.Route("/sales", params.SalesHandler.MountRoutes)
		api.Route("/repairs", params.RepairsHandler.MountRoutes)
		api.Route("/reports", params.ReportsHandler.MountRoutes)
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
