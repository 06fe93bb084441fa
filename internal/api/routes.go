package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zapponejosh/textcal/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET /health
//	GET /api/v1/calendar/{year}             ?format=text
//	GET /api/v1/calendar/{year}/{month}     ?format=text
//	GET /api/v1/lookups                     ?limit=N (API key)
//	GET /api/v1/lookups/stats               (API key)
//	GET /api/v1/lookups/{id}                (API key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		RequestContextMiddleware(),
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/calendar/{year}", handlers.GetYear)
		r.Get("/calendar/{year}/{month}", handlers.GetMonth)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg, logger))
			r.Get("/lookups", handlers.GetLookups)
			r.Get("/lookups/stats", handlers.GetLookupStats)
			r.Get("/lookups/{id}", handlers.GetLookup)
		})
	})

	return r
}
