package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/calendar-iam/internal/core/port"
	"github.com/arklim/calendar-iam/internal/infra/config"
	"github.com/arklim/calendar-iam/internal/transport/http/handlers"
	"github.com/arklim/calendar-iam/internal/transport/http/middleware"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Verifier port.TokenVerifier
	Issuer   port.TokenIssuer
	Denylist port.TokenDenylist
	Metrics  *middleware.HTTPMetrics
	Cache    CacheChecker
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Tracing(middleware.TracingOptions{}))
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())

	healthOptions := make([]handlers.HealthOption, 0, 1)
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")
	{
		userGroup := api.Group("/user")

		if deps.Verifier != nil && deps.Denylist != nil {
			authMiddleware := middleware.RequireAuth(deps.Verifier, deps.Denylist)
			handlers.NewSessionHandler(deps.Denylist, deps.Logger).RegisterRoutes(userGroup, authMiddleware)
		}

		if deps.Config.App.Env == "development" && deps.Issuer != nil {
			handlers.NewTokenHandler(deps.Issuer).RegisterRoutes(userGroup)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.NewErrorResponse(c, "not found"))
	})

	return r
}
