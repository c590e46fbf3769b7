package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/digitalmoneyhouse/dmh/internal/adapter/http"
	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/handler"
	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/middleware"
	postgresRepo "github.com/digitalmoneyhouse/dmh/internal/adapter/repository/postgres"
	redisRepo "github.com/digitalmoneyhouse/dmh/internal/adapter/repository/redis"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/auth"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/config"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/eventpublisher"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/logger"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/redis"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
	"github.com/digitalmoneyhouse/dmh/internal/wizard"
)

const serviceName = "dmh"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: serviceName})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(log.Logger.WithContext(ctx), cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if !cfg.AuthEnabled() {
		return errors.New("JWT_SECRET is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(ctx, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, redis.Options{PoolSize: cfg.RedisPoolSize})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	cardRepo := postgresRepo.NewCardRepository(pool)
	serviceRepo := postgresRepo.NewServiceRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository()
	paymentRepo := postgresRepo.NewPaymentRepository()
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(postgresRepo.WithRetryMetrics(m))
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen, m)
	activityUC := usecase.NewActivityUseCase(accountUC, entryRepo, cache, m, usecase.ActivityConfig{
		Location: loc,
		PageSize: cfg.ActivityPageSize,
		CacheTTL: cfg.ActivityCacheTTL,
	})
	cardUC := usecase.NewCardUseCase(cardRepo, idGen, m)
	serviceUC := usecase.NewServiceUseCase(serviceRepo, cache, m, cfg.ServicesCacheTTL)
	transferUC := usecase.NewTransferUseCase(txManager, accountUC, accountRepo, transferRepo, entryRepo, outboxRepo, idGen, retrier, cache, m)
	fundsUC := usecase.NewFundsUseCase(usecase.FundsDeps{
		TxManager:   txManager,
		AccountRepo: accountRepo,
		EntryRepo:   entryRepo,
		CardRepo:    cardRepo,
		ServiceRepo: serviceRepo,
		PaymentRepo: paymentRepo,
		OutboxRepo:  outboxRepo,
		IDGen:       idGen,
		Retrier:     retrier,
		Cache:       cache,
		Metrics:     m,
	}, cfg.MaxLoadAmount)
	flowUC := usecase.NewFlowUseCase(accountUC, cardUC, serviceUC, fundsUC, failurePredicate(cfg), m, cfg.FlowTTL)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accountUC),
		ActivityHandler: handler.NewActivityHandler(activityUC),
		CardHandler:     handler.NewCardHandler(cardUC),
		TransferHandler: handler.NewTransferHandler(transferUC),
		ServiceHandler:  handler.NewServiceHandler(serviceUC),
		FlowHandler:     handler.NewFlowHandler(flowUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		Verifier:         auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		Gatherer:         registry,
		Logger:           log.Logger,
	})

	// Background workers
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log.Logger),
		Metrics:    m,
		Logger:     &log.Logger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go flowUC.Run(ctx, cfg.FlowSweepInterval)
	go rateLimiter.Run(ctx, cfg.FlowSweepInterval)

	// Create server
	server := newServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("timezone", loc.String()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// failurePredicate returns nil when no suffixes are configured, so every
// card payment succeeds.
func failurePredicate(cfg *config.Config) wizard.FailurePredicate {
	if len(cfg.FlowFailingCardSuffixes) == 0 {
		return nil
	}
	return wizard.CardSuffixFailure(cfg.FlowFailingCardSuffixes...)
}
