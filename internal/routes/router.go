package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"synq/backend/internal/api"
	"synq/backend/internal/config"
	"synq/backend/internal/logging"
	"synq/backend/internal/middleware"
)

// RegisterRoutes builds the chi router for the whole HTTP surface except
// /metrics, which the server mounts beside it.
func RegisterRoutes(cfg *config.Config, deps *api.Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-API-Key", "X-User-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")
	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(deps.DB, deps.Redis, upSince))

	handlers := api.NewHandlers(deps)
	redeemLimiter := middleware.NewIPRateLimiter(cfg.RateLimit)

	RegisterAPIRoutes(r, cfg.Auth, deps, handlers, redeemLimiter)

	return r
}
