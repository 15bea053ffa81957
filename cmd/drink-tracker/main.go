package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"drinktracker/internal/cli"
	apphttp "drinktracker/internal/http"
	applog "drinktracker/internal/log"
	"drinktracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger, err := cli.SetupLogger(cfg, applog.ComponentApp)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	ctx := context.Background()

	store := cli.InitStore(ctx, logger.Logger, cfg)
	streaks := cli.InitStreakCache(ctx, logger.Logger, cfg)
	if streaks.Manager != nil {
		streaks.Manager.StartCleanup(5 * time.Minute)
	}

	publisher, closePublisher, err := cli.InitSummaryPublisher(ctx, logger.Logger, cfg, store.Store)
	if err != nil {
		logger.Warn("Summary publishing unavailable, continuing without it", "error", err)
		publisher = nil
	}

	drinks := services.NewDrinkService(store.Store, streaks.Cache, time.Now, cfg.MaxBackfillDays)
	rollup := services.NewMonthlyRollupProcessor(store.Store, publisher, time.Now, cfg.RollupConcurrency)

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		CronSecret:         cfg.CronSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	}, drinks, rollup, store.Store)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if streaks.Manager != nil {
			streaks.Manager.Stop()
		}
		closePublisher()
		if err := streaks.Cleanup(); err != nil {
			logger.Warn("Failed to close streak cache", "error", err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	})

	if cfg.CronSecret == "" {
		logger.Warn("CRON_SECRET not set - monthly cron endpoint disabled")
	}
	logger.Info("Starting drink-tracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache_backend", cfg.CacheBackend,
		"amqp_enabled", cfg.AMQPEnabled())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
