package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"hoteldash/internal/analytics"
	"hoteldash/internal/backend"
	"hoteldash/internal/cache"
	"hoteldash/internal/cli"
	apphttp "hoteldash/internal/http"
	"hoteldash/internal/log"
	"hoteldash/internal/middleware/security"
	"hoteldash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	views := services.NewViewService(
		result.Backend,
		analytics.NewEngine(logger.WithComponent(log.ComponentAnalytics)),
		logger.WithComponent(log.ComponentView),
		services.ViewConfig{
			CacheSize:    cfg.ViewCacheSize,
			CacheTTL:     cfg.ViewCacheTTL,
			FetchTimeout: cfg.FetchTimeout,
			DefaultTopN:  cfg.DefaultTopN,
		},
	)

	// New rows change every payload, so cached views are dropped on ingest
	if result.Ingest != nil {
		result.Ingest.OnIngest(func() { views.Invalidate() })
	}

	cacheManager := cache.NewManager()
	cacheManager.Register(views.Cache())
	cacheManager.StartCleanup(time.Minute)

	proxies, err := security.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("Invalid trusted proxies", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, views, result.Ingest, apphttp.Options{
		Backend:            result.Backend,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultTopN:        cfg.DefaultTopN,
		TrustedProxies:     proxies,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting hoteldash server", "port", cfg.Port, "backend", backendCfg.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
