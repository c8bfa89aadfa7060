package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/config"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/handlers"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/middleware"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Gate        *usecase.AuthGate
	Sessions    *usecase.SessionService
	Cookies     *middleware.CookieSessionManager
	RateLimiter *usecase.RateLimiter
	Metrics     *middleware.HTTPMetrics
	// Gatherer backs /metrics; the default gatherer is used when nil.
	Gatherer prometheus.Gatherer
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.CORS(cfg.App.AllowedOrigins))
	r.Use(middleware.Logger(log))
	r.Use(deps.Metrics.Handler())

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(metricsHandler(deps.Gatherer)))

	if deps.Gate == nil || deps.Sessions == nil {
		return r
	}

	cookies := deps.Cookies
	if cookies == nil {
		cookies = middleware.NewCookieSessionManager(middleware.CookieOptions{})
	}
	requireAuth := middleware.RequireAuth(deps.Gate, cookies)

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Sessions, cookies)
		authHandler.RegisterRoutes(api.Group("/auth"), handlers.AuthMiddlewares{
			Login:    buildLoginMiddlewares(cfg, deps.RateLimiter),
			Required: requireAuth,
			Optional: middleware.OptionalAuth(deps.Gate, cookies),
		})

		accessHandler := handlers.NewAccessHandler(deps.RateLimiter, sensitivePolicy(cfg))
		accessHandler.RegisterRoutes(api.Group("/access"), requireAuth)
	}

	return r
}

func metricsHandler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func buildLoginMiddlewares(cfg *config.AppConfig, limiter *usecase.RateLimiter) []gin.HandlerFunc {
	if limiter == nil {
		return nil
	}

	limit := cfg.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	policy := usecase.RateLimitPolicy{
		Name:        "auth_login_ip",
		MaxRequests: limit,
		Window:      window,
	}

	return []gin.HandlerFunc{middleware.RateLimitByClientIP(limiter, policy)}
}

func sensitivePolicy(cfg *config.AppConfig) usecase.RateLimitPolicy {
	window := cfg.RateLimit.SensitiveWindow
	if window <= 0 {
		window = time.Minute
	}
	return usecase.RateLimitPolicy{
		Name:        "sensitive",
		MaxRequests: cfg.RateLimit.SensitiveMaxRequests,
		Window:      window,
	}
}
