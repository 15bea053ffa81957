package main

import (
	"context"
	"errors"
	"os"
	"time"

	"drinktracker/internal/cli"
	applog "drinktracker/internal/log"
	"drinktracker/internal/services"
	"drinktracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger, err := cli.SetupLogger(cfg, applog.ComponentRollup)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting rollup-worker")

	store := cli.InitStore(context.Background(), logger.Logger, cfg)

	publisher, closePublisher, err := cli.InitSummaryPublisher(context.Background(), logger.Logger, cfg, store.Store)
	if err != nil {
		logger.Warn("Summary publishing unavailable, summaries will only be stored", "error", err)
		publisher = nil
	}

	processor := services.NewMonthlyRollupProcessor(store.Store, publisher, time.Now, cfg.RollupConcurrency)
	rollupWorker := worker.NewRollupWorker(processor, cfg.RollupInterval, time.Now)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
	})

	logger.Info("Monthly rollup worker configured",
		"interval", cfg.RollupInterval,
		"concurrency", cfg.RollupConcurrency,
		"backend", cfg.DataBackend)

	if err := rollupWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Rollup worker stopped", "error", err)
	}

	cli.WaitForShutdown(ctx, done)

	closePublisher()
	if err := store.Cleanup(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	logger.Info("Worker shutdown complete")
}
