package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/config"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/database"
	kafkainfra "github.com/vindeacy/RentSpotLimited-sub000/internal/infra/kafka"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/logger"
	redisinfra "github.com/vindeacy/RentSpotLimited-sub000/internal/infra/redis"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/telemetry"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository/memory"
	postgresrepo "github.com/vindeacy/RentSpotLimited-sub000/internal/repository/postgres"
	redisrepo "github.com/vindeacy/RentSpotLimited-sub000/internal/repository/redis"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/middleware"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/routes"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// Application owns the HTTP server and every background worker.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	tracer   *telemetry.TracerProvider
	producer *kafkainfra.Producer

	// workers run for the lifetime of Run.
	workers []func(ctx context.Context) error
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	if a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log); err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	repos := postgresrepo.NewRepositories(a.pool)

	if cfg.RedisRequired() {
		if a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log); err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
	}

	tokens, err := security.NewTokenService(security.TokenServiceConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTokenTTL,
		RefreshTTL:    cfg.JWT.RefreshTokenTTL,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	revocations := a.revocationStore(tokens.AccessTTL())
	rateLimits := a.rateLimitStore()

	authMetrics, err := telemetry.NewAuthMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init auth metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	events := a.eventPublisher()

	refresher := usecase.NewRefresher(tokens, repos.Principals).WithMetrics(authMetrics)
	gate := usecase.NewAuthGate(tokens, revocations, repos.Principals, refresher, log).WithMetrics(authMetrics)
	sessions := usecase.NewSessionService(repos.Principals, tokens, revocations, refresher, events, log)
	limiter := usecase.NewRateLimiter(rateLimits, log)

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Gate:     gate,
		Sessions: sessions,
		Cookies: middleware.NewCookieSessionManager(middleware.CookieOptions{
			Secure:     cfg.Cookie.Secure,
			Domain:     cfg.Cookie.Domain,
			AccessTTL:  tokens.AccessTTL(),
			RefreshTTL: tokens.RefreshTTL(),
		}),
		RateLimiter: limiter,
		Metrics:     httpMetrics,
		Database:    a.pool,
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.engine = routes.Register(deps)

	ok = true
	return a, nil
}

// revocationStore picks the configured backend. The memory list is swept in the
// background.
func (a *Application) revocationStore(ttl time.Duration) port.RevocationStore {
	cfg := a.cfg
	if cfg.Revocation.Backend == config.BackendRedis {
		prefix := cfg.Redis.KeyPrefix + ":revoked"
		return redisrepo.NewRevocationRepository(a.redis.Client(), prefix, ttl)
	}

	list := security.NewRevocationList(security.RevocationListOptions{
		TTL:           ttl,
		SweepInterval: cfg.Revocation.SweepInterval,
	})
	a.workers = append(a.workers, func(ctx context.Context) error {
		list.Run(ctx)
		return nil
	})

	return list
}

func (a *Application) rateLimitStore() port.RateLimitStore {
	cfg := a.cfg
	window := max(cfg.RateLimit.WindowDuration, cfg.RateLimit.SensitiveWindow, time.Minute)

	if cfg.RateLimit.Backend == config.BackendRedis {
		return redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.KeyPrefix + ":rate-limit",
			TTL:       window * 2,
		})
	}

	store := memory.NewRateLimitRepository(window)
	a.workers = append(a.workers, func(ctx context.Context) error {
		store.Run(ctx, cfg.RateLimit.SweepInterval)
		return nil
	})
	return store
}

func (a *Application) eventPublisher() port.EventPublisher {
	if !a.cfg.Kafka.Enabled {
		a.logger.Info("kafka disabled, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

// Handler exposes the configured engine.
func (a *Application) Handler() http.Handler {
	return a.engine
}

func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting RentSpot auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, worker := range a.workers {
		g.Go(func() error { return worker(gctx) })
	}

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.App.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *Application) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("shutdown tracer", zap.Error(err))
	}
	_ = a.logger.Sync()
}
