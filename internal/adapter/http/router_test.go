package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/activity"
	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/handler"
	apimiddleware "github.com/digitalmoneyhouse/dmh/internal/adapter/http/middleware"
	redisrepo "github.com/digitalmoneyhouse/dmh/internal/adapter/repository/redis"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/auth"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

const testSecret = "router-secret"

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_ReadinessReportsUnhealthyDependency(t *testing.T) {
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.HealthHandler = handler.NewHealthHandler(
			handler.PingFunc(func(context.Context) error { return nil }),
			handler.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "redis unhealthy") {
		t.Fatalf("expected redis to be reported unhealthy, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RequiresBearerToken(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/account", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, http.MethodGet, "/api/v1/me/account", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"alias":"sol.rio.mate"`) {
		t.Fatalf("expected account for session user, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(0.001, 1, cfg.Metrics)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, http.MethodGet, "/api/v1/me/account", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, http.MethodGet, "/api/v1/me/account", ""))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health checks must not be rate limited, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotentTransferReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	transfers := &stubTransferService{}
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = redisrepo.NewIdempotencyStore(client)
		cfg.TransferHandler = handler.NewTransferHandler(transfers)
	}))

	send := func() *httptest.ResponseRecorder {
		req := authed(t, http.MethodPost, "/api/v1/me/transfers", `{"destination":"luna.mar.pampa","amount":"300"}`)
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected both responses to be 201, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected second response to be a replay")
	}
	if strings.TrimSpace(first.Body.String()) != strings.TrimSpace(second.Body.String()) {
		t.Fatalf("expected identical bodies:\n%s\n%s", first.Body.String(), second.Body.String())
	}
	if n := transfers.calls.Load(); n != 1 {
		t.Fatalf("expected money to move once, got %d calls", n)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.Metrics = metrics.New(reg)
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `dmh_http_requests_total{method="GET",path="/health",status="200"} 1`) {
		t.Fatalf("expected request counter in /metrics output, got:\n%s", body)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	chiRoutes, ok := router.(chi.Routes)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/v1/me/account",
		"GET /api/v1/me/activity",
		"GET /api/v1/me/activity/{id}",
		"GET /api/v1/me/cards",
		"POST /api/v1/me/cards",
		"DELETE /api/v1/me/cards/{id}",
		"POST /api/v1/me/transfers",
		"GET /api/v1/services/",
		"GET /api/v1/services/{id}",
		"POST /api/v1/flows/topups/",
		"GET /api/v1/flows/topups/{id}",
		"POST /api/v1/flows/topups/{id}/card-method",
		"POST /api/v1/flows/topups/{id}/submit",
		"POST /api/v1/flows/bill-payments/",
		"POST /api/v1/flows/bill-payments/{id}/method",
		"POST /api/v1/flows/bill-payments/{id}/retry",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func authed(t *testing.T, method, target, body string) *http.Request {
	t.Helper()

	token, err := auth.NewJWTManager(testSecret, time.Minute).Generate("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) RouterConfig {
	t.Helper()

	ok := handler.PingFunc(func(context.Context) error { return nil })

	cfg := RouterConfig{
		AccountHandler:  handler.NewAccountHandler(stubAccountService{}),
		ActivityHandler: handler.NewActivityHandler(stubActivityService{}),
		CardHandler:     handler.NewCardHandler(nil),
		TransferHandler: handler.NewTransferHandler(&stubTransferService{}),
		ServiceHandler:  handler.NewServiceHandler(nil),
		FlowHandler:     handler.NewFlowHandler(nil),
		HealthHandler:   handler.NewHealthHandler(ok, ok),
		Verifier:        auth.NewJWTManager(testSecret, time.Minute),
		Metrics:         metrics.New(prometheus.NewRegistry()),
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) GetOrCreate(ctx context.Context, session domain.Session) (*domain.Account, error) {
	return &domain.Account{ID: "acc-1", OwnerID: session.UserID, Alias: "sol.rio.mate"}, nil
}

type stubActivityService struct{}

func (stubActivityService) Now() time.Time { return time.Now() }

func (stubActivityService) Search(ctx context.Context, session domain.Session, filters activity.FilterState) (*usecase.SearchResult, error) {
	return &usecase.SearchResult{Filters: filters, Page: activity.Page{Page: 1, TotalPages: 1}}, nil
}

func (stubActivityService) GetEntry(ctx context.Context, session domain.Session, id string) (*domain.LedgerEntry, error) {
	return nil, domain.ErrEntryNotFound
}

type stubTransferService struct {
	calls atomic.Int32
}

func (s *stubTransferService) SendMoney(ctx context.Context, session domain.Session, input usecase.SendMoneyInput) (*domain.Transfer, error) {
	n := s.calls.Add(1)
	return &domain.Transfer{
		ID:            fmt.Sprintf("tx-%d", n),
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        input.Amount,
	}, nil
}
