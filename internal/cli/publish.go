package cli

import (
	"context"
	"fmt"
	"log/slog"

	"drinktracker/internal/adapters"
	"drinktracker/internal/amqp"
	"drinktracker/internal/config"
	"drinktracker/internal/ports"
	"drinktracker/internal/services"
	"drinktracker/internal/sheets/google"
)

// InitSheetsExporter returns nil when no spreadsheet is configured.
func InitSheetsExporter(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*google.Client, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}

	client, err := google.NewClient(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSummarySheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// InitSummaryPublisher picks how freshly computed summaries leave the
// process: through the broker when AMQP is configured, straight to the
// spreadsheet when only Sheets is, and not at all otherwise. The returned
// cleanup is never nil.
func InitSummaryPublisher(ctx context.Context, logger *slog.Logger, cfg *config.Config, summaries ports.SummaryStore) (ports.SummaryPublisher, func(), error) {
	noop := func() {}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, noop, fmt.Errorf("init amqp client: %w", err)
		}
		logger.Info("AMQP publisher initialized - summaries will be exported by summary-exporter",
			"exchange", cfg.AMQPExchange)
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}, nil
	}

	exporter, err := InitSheetsExporter(ctx, logger, cfg)
	if err != nil {
		return nil, noop, err
	}
	if exporter == nil {
		logger.Info("Summary publishing disabled - neither AMQP nor Google Sheets configured")
		return nil, noop, nil
	}

	logger.Info("AMQP disabled - summaries will be exported directly to Google Sheets")
	processor := services.NewSummaryExportProcessor(summaries, exporter)
	return adapters.NewDirectExportPublisher(processor), noop, nil
}
