package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/handler"
	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/middleware"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	ActivityHandler *handler.ActivityHandler
	CardHandler     *handler.CardHandler
	TransferHandler *handler.TransferHandler
	ServiceHandler  *handler.ServiceHandler
	FlowHandler     *handler.FlowHandler
	HealthHandler   *handler.HealthHandler

	Verifier         middleware.SessionVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics(cfg.Metrics))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Verifier, cfg.Metrics))

		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/me", func(r chi.Router) {
			r.Get("/account", cfg.AccountHandler.Me)

			r.Get("/activity", cfg.ActivityHandler.List)
			r.Get("/activity/{id}", cfg.ActivityHandler.Get)

			r.Get("/cards", cfg.CardHandler.List)
			r.Post("/cards", cfg.CardHandler.Create)
			r.Delete("/cards/{id}", cfg.CardHandler.Delete)

			r.Post("/transfers", cfg.TransferHandler.Create)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", cfg.ServiceHandler.List)
			r.Get("/{id}", cfg.ServiceHandler.Get)
		})

		r.Route("/flows/topups", func(r chi.Router) {
			r.Post("/", cfg.FlowHandler.StartTopUp)
			r.Get("/{id}", cfg.FlowHandler.GetTopUp)
			r.Delete("/{id}", cfg.FlowHandler.Discard)
			r.Post("/{id}/transfer", cfg.FlowHandler.ChooseTransfer)
			r.Post("/{id}/card-method", cfg.FlowHandler.ChooseCardMethod)
			r.Post("/{id}/card", cfg.FlowHandler.SelectCard)
			r.Post("/{id}/amount", cfg.FlowHandler.EnterAmount)
			r.Post("/{id}/submit", cfg.FlowHandler.SubmitTopUp)
			r.Post("/{id}/retry", cfg.FlowHandler.RetryTopUp)
			r.Post("/{id}/cancel", cfg.FlowHandler.CancelTopUp)
		})

		r.Route("/flows/bill-payments", func(r chi.Router) {
			r.Post("/", cfg.FlowHandler.StartBillPayment)
			r.Get("/{id}", cfg.FlowHandler.GetBillPayment)
			r.Delete("/{id}", cfg.FlowHandler.Discard)
			r.Post("/{id}/service", cfg.FlowHandler.SelectService)
			r.Post("/{id}/reference", cfg.FlowHandler.EnterReference)
			r.Post("/{id}/method", cfg.FlowHandler.ChooseMethod)
			r.Post("/{id}/submit", cfg.FlowHandler.SubmitBillPayment)
			r.Post("/{id}/retry", cfg.FlowHandler.RetryBillPayment)
			r.Post("/{id}/cancel", cfg.FlowHandler.CancelBillPayment)
		})
	})

	return r
}
