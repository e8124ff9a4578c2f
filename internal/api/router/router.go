package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/t5fueling/t5fueling-web/internal/http/handlers"
	httpmiddleware "github.com/t5fueling/t5fueling-web/internal/http/middleware"
	"github.com/t5fueling/t5fueling-web/internal/leads"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	HealthHandler      *handlers.HealthHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ProbeThrottle limits the dependency probes per client. Optional.
	ProbeThrottle *httpmiddleware.Throttle
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.Liveness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.LeadsHandler != nil {
		r.Post("/leads", cfg.LeadsHandler.CreateSubmission)
		r.Post("/leads/validate", cfg.LeadsHandler.ValidateSubmission)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.LeadsHandler != nil {
			api.Post("/leads", cfg.LeadsHandler.CreateSubmission)
		}

		if cfg.HealthHandler != nil {
			api.Group(func(probes chi.Router) {
				if cfg.ProbeThrottle != nil {
					probes.Use(cfg.ProbeThrottle.Middleware(cfg.Logger))
				}
				probes.Get("/health/ses", cfg.HealthHandler.EmailHealth)
				probes.Get("/health/db", cfg.HealthHandler.DatabaseProbe)
				probes.Get("/test-supabase", cfg.HealthHandler.DatabaseProbe)
			})
		}

		for _, path := range []string{"/customers", "/orders"} {
			api.Get(path, handlers.NotImplemented)
			api.Post(path, handlers.NotImplemented)
		}
	})

	return r
}
