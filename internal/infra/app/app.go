package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
	"github.com/arklim/calendar-iam/internal/infra/config"
	kafkainfra "github.com/arklim/calendar-iam/internal/infra/kafka"
	"github.com/arklim/calendar-iam/internal/infra/logger"
	redisinfra "github.com/arklim/calendar-iam/internal/infra/redis"
	"github.com/arklim/calendar-iam/internal/infra/security"
	"github.com/arklim/calendar-iam/internal/infra/telemetry"
	"github.com/arklim/calendar-iam/internal/repository/memory"
	redisrepo "github.com/arklim/calendar-iam/internal/repository/redis"
	"github.com/arklim/calendar-iam/internal/transport/http/middleware"
	"github.com/arklim/calendar-iam/internal/transport/http/routes"
	"github.com/arklim/calendar-iam/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}

	if cfg.Telemetry.OTLPEndpoint != "" {
		tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		a.tracer = tp
	}

	keyProvider, err := security.NewKeyProvider(cfg.App.Env, cfg.JWT.KeyDirectory)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init key provider: %w", err)
	}
	jwtManager := security.NewJWTManager(keyProvider, cfg.App.Name, cfg.JWT.AccessTokenTTL)

	if cfg.Denylist.HashSecret == "" {
		log.Warn("denylist hash secret not configured, token digests are unkeyed")
	}
	hasher, err := security.NewTokenHasher(cfg.Denylist.HashSecret)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init token hasher: %w", err)
	}

	selector, err := NewBucketSelector(cfg.Denylist)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init bucket selector: %w", err)
	}

	store, err := a.revocationStore(cfg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	denylistMetrics, err := telemetry.NewDenylistMetrics(telemetry.DenylistMetricsOptions{})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init denylist metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	cache, err := usecase.NewRevocationCache(store, hasher, selector, usecase.RevocationCacheOptions{
		KeyPrefix:    cfg.Denylist.KeyPrefix,
		Window:       cfg.Denylist.Window,
		StoreTimeout: cfg.Denylist.StoreTimeout,
		Policy:       domain.NewDegradationPolicy(domain.ParseDegradationPolicyMode(cfg.Denylist.DegradationPolicy)),
	})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init revocation cache: %w", err)
	}
	cache.WithLogger(log).
		WithMetrics(denylistMetrics).
		WithPublisher(a.eventPublisher(cfg))

	log.Info("token denylist configured",
		zap.String("store", cfg.Denylist.Store),
		zap.String("selector", cfg.Denylist.Selector),
		zap.Int("buckets", selector.Size()),
		zap.Duration("window", cfg.Denylist.Window),
		zap.Duration("reuse_interval", selector.ReuseInterval()),
		zap.String("degradation_policy", cfg.Denylist.DegradationPolicy),
	)

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Verifier: jwtManager,
		Issuer:   jwtManager,
		Denylist: cache,
		Metrics:  httpMetrics,
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.engine = routes.Register(deps)

	return a, nil
}

// NewBucketSelector builds the ring selector described by the denylist settings.
func NewBucketSelector(settings config.DenylistSettings) (port.BucketSelector, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Selector)) {
	case config.SelectorWeekday:
		loc, err := settings.LoadLocation()
		if err != nil {
			return nil, err
		}
		return domain.NewWeekdaySelector(loc), nil
	case config.SelectorEpoch:
		selector, err := domain.NewEpochSelector(settings.EpochLength, settings.Buckets)
		if err != nil {
			return nil, err
		}
		return selector, nil
	default:
		return nil, fmt.Errorf("%w: unknown selector %q", domain.ErrInvalidConfiguration, settings.Selector)
	}
}

func (a *Application) revocationStore(cfg *config.AppConfig) (port.RevocationStore, error) {
	if strings.EqualFold(cfg.Denylist.Store, config.StoreMemory) {
		if cfg.App.Env == "production" {
			a.logger.Warn("in-memory revocation store is not shared between instances")
		}
		return memory.NewRevocationStore(), nil
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	a.redis = redisClient
	return redisrepo.NewRevocationRepository(redisClient.Client()), nil
}

func (a *Application) eventPublisher(cfg *config.AppConfig) port.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	return kafkainfra.NewEventPublisher(producer, cfg.App, a.logger)
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.close(context.Background())

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting IAM API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// close releases infrastructure in reverse order of construction.
func (a *Application) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
		a.redis = nil
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to shutdown tracer provider", zap.Error(err))
	}
	a.tracer = nil
}
