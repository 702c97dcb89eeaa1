package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/horeca-backoffice/apps/api/internal/app"
	"github.com/horeca-backoffice/apps/api/internal/archive"
	"github.com/horeca-backoffice/apps/api/internal/cache"
	"github.com/horeca-backoffice/apps/api/internal/config"
	"github.com/horeca-backoffice/apps/api/internal/db"
	"github.com/horeca-backoffice/apps/api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	deps := app.Dependencies{Store: store.NewPostgres(pool)}

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		deps.Cache = redisCache
	}

	if cfg.ImportArchiveBucket != "" {
		s3Archive, err := archive.NewS3(ctx, cfg.ImportArchiveBucket, cfg.AWSRegion, cfg.ImportArchiveEndpoint)
		if err != nil {
			logger.Error("configure import archive", "error", err)
			os.Exit(1)
		}
		deps.Archive = s3Archive
	}

	router, err := app.NewRouter(cfg, deps, logger)
	if err != nil {
		logger.Error("build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		logger.Info("api_started",
			"addr", cfg.Addr,
			"env", cfg.Env,
			"import_workers", cfg.ImportWorkers,
			"analytics_cache", cfg.RedisURL != "",
			"import_archive", cfg.ImportArchiveBucket != "",
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
