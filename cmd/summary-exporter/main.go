package main

import (
	"context"
	"errors"
	"os"
	"time"

	"drinktracker/internal/amqp"
	"drinktracker/internal/cli"
	applog "drinktracker/internal/log"
	"drinktracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger, err := cli.SetupLogger(cfg, applog.ComponentExport)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting summary-exporter")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for summary-exporter")
		os.Exit(1)
	}

	exporter, err := cli.InitSheetsExporter(context.Background(), logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if exporter == nil {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for summary-exporter")
		os.Exit(1)
	}

	store := cli.InitStore(context.Background(), logger.Logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	processor := services.NewSummaryExportProcessor(store.Store, exporter)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	})

	logger.Info("Consuming summary events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeSummaryComputed(ctx, processor.HandleSummaryMessage); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		amqpClient.Close()
		store.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)

	if err := store.Cleanup(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	logger.Info("Exporter shutdown complete")
}
