package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/moveledger/internal/adapter/http/handler"
	"github.com/iho/moveledger/internal/adapter/http/middleware"
	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/infrastructure/auth"
	"github.com/iho/moveledger/internal/infrastructure/metrics"
	"github.com/iho/moveledger/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional parts are nil
// when disabled.
type RouterConfig struct {
	MovementHandler *handler.MovementHandler
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler
	Logger          zerolog.Logger

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	JWTManager       *auth.JWTManager
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsGatherer  prometheus.Gatherer
	AllowedOrigins   []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
		ExposedHeaders:   []string{middleware.IdempotencyReplayHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// With auth disabled every role check passes through.
	role := func(domain.Role) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler { return next }
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.Authenticate(cfg.JWTManager))
			role = middleware.RequireRole
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).
				WithLogger(cfg.Logger)
			r.Use(idempotency.Wrap)
		}

		if cfg.JWTManager != nil && cfg.AuthHandler != nil {
			r.Get("/auth/me", cfg.AuthHandler.GetCurrentUser)
		}

		h := cfg.MovementHandler

		r.Route("/movements", func(r chi.Router) {
			r.With(role(domain.RoleViewer)).Get("/", h.List)
			r.With(role(domain.RoleViewer)).Get("/export", h.Export)
			r.With(role(domain.RoleOperator)).Post("/", h.Create)
			r.With(role(domain.RoleAdmin)).Post("/import", h.Import)
			r.With(role(domain.RoleViewer)).Get("/{id}", h.Get)
			r.With(role(domain.RoleOperator)).Post("/{id}/reverse", h.Reverse)
			r.With(role(domain.RoleAdmin)).Delete("/{id}", h.Delete)
		})

		r.With(role(domain.RoleViewer)).Get("/clients/{id}/movements", h.ListByClient)
	})

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
