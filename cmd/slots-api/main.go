package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timeslots-api/api/swagger"
	"github.com/noah-isme/timeslots-api/internal/handler"
	"github.com/noah-isme/timeslots-api/internal/middleware"
	"github.com/noah-isme/timeslots-api/internal/repository"
	"github.com/noah-isme/timeslots-api/internal/service"
	"github.com/noah-isme/timeslots-api/internal/timeslot"
	"github.com/noah-isme/timeslots-api/pkg/cache"
	"github.com/noah-isme/timeslots-api/pkg/config"
	"github.com/noah-isme/timeslots-api/pkg/jobs"
	"github.com/noah-isme/timeslots-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timeslots-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timeslots-api/pkg/middleware/requestid"
)

// @title Timeslots API
// @version 1.0.0
// @description Slot generation and availability tracking over time ranges
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	patchMode, err := timeslot.ParsePatchMode(cfg.Slots.PatchMode)
	if err != nil {
		logr.Fatal("invalid PATCH_MODE", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without export cache and shared rate limits", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "timeslots", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Export.CacheTTL, logr, cfg.Export.CacheEnabled && redisClient != nil)

	var stores *service.SlotStoreService
	purges := jobs.NewQueue("export-purge", func(ctx context.Context, job jobs.Job) error {
		return stores.PurgeExports(ctx, job)
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	purges.Start(ctx)
	defer purges.Stop()

	stores = service.NewSlotStoreService(service.SlotStoreConfig{
		DefaultSlotLength: cfg.Slots.DefaultSlotLength,
		MaxSlotsPerStore:  cfg.Slots.MaxSlotsPerStore,
		MaxStores:         cfg.Slots.MaxStores,
		StoreTTL:          cfg.Slots.StoreTTL,
		Inclusive:         cfg.Slots.InclusiveOverlap,
		PatchMode:         patchMode,
		ExportCacheTTL:    cfg.Export.CacheTTL,
	}, cacheSvc, metrics, purges, validator.New(validator.WithRequiredStructEnabled()), logr)
	go stores.RunJanitor(ctx, time.Minute)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, stores)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(newLimiter(cfg.RateLimit, redisClient), logr, cfg.RateLimit.FailOpen))
	}

	routes := handler.Routes{
		SlotStores: handler.NewSlotStoreHandler(stores),
		Intervals:  handler.NewIntervalHandler(stores),
		Metrics:    metricsHandler,
	}
	if cfg.JWT.Enabled {
		routes.Auth = service.NewTokenService(service.TokenConfig{
			Secret:   cfg.JWT.Secret,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		}, logr)
	}
	routes.Register(api)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logr.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logr.Error("server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newLimiter(cfg config.RateLimitConfig, client *redis.Client) middleware.Limiter {
	if client != nil {
		return middleware.NewRedisLimiter(client, cfg.Requests, cfg.Window, "timeslots:rl")
	}
	return middleware.NewLocalLimiter(cfg.Requests, cfg.Window)
}
