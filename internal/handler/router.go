// Package handler provides the HTTP API for the E-Day ledger.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/metrics"
	"github.com/prn-tf/eday-ledger/internal/service"
)

// HealthChecker reports whether the bucket store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router wires the ledger handlers, middleware and operational endpoints.
type Router struct {
	ledgerHandler *LedgerHandler
	adminHandler  *AdminHandler
	health        HealthChecker
	metrics       *metrics.Metrics
	metricsPath   string
	logger        zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Ledger      *service.LedgerService
	Analysis    *service.AnalysisService
	Health      HealthChecker
	Metrics     *metrics.Metrics
	MetricsPath string
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	logger := config.Logger.With().Str("component", "router").Logger()
	return &Router{
		ledgerHandler: NewLedgerHandler(config.Ledger, config.Analysis, config.MaxBodySize, logger),
		adminHandler:  NewAdminHandler(config.Ledger, config.MaxBodySize, logger),
		health:        config.Health,
		metrics:       config.Metrics,
		metricsPath:   config.MetricsPath,
		logger:        logger,
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(rt.logger))
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(Instrument(rt.metrics))
	}

	// Health check and metrics (no client id)
	r.Get("/health", rt.handleHealth)
	if rt.metrics != nil && rt.metricsPath != "" {
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(ClientID)
		rt.ledgerHandler.RegisterRoutes(r)
		r.Route("/admin", rt.adminHandler.RegisterRoutes)
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rt.health.Ping(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
