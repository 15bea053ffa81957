package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"drinktracker/internal/amqp"
	"drinktracker/internal/ports"
)

// SummaryExportProcessor mirrors computed monthly summaries to an external
// destination as their events arrive.
type SummaryExportProcessor struct {
	summaries ports.SummaryStore
	exporter  ports.SummaryExporter
}

func NewSummaryExportProcessor(summaries ports.SummaryStore, exporter ports.SummaryExporter) *SummaryExportProcessor {
	return &SummaryExportProcessor{
		summaries: summaries,
		exporter:  exporter,
	}
}

// HandleSummaryMessage loads the summary named by msg and exports it.
// A missing summary wraps ports.ErrNotFound so the consumer drops the message
// instead of redelivering it.
func (p *SummaryExportProcessor) HandleSummaryMessage(ctx context.Context, msg *amqp.SummaryComputedMessage) error {
	if p.summaries == nil || p.exporter == nil {
		return fmt.Errorf("export processor not properly initialized")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	ym, _ := msg.YearMonth()

	summary, err := p.summaries.GetMonthlySummary(ctx, msg.UserID, ym)
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("summary for %s %s not found: %w", msg.UserID, ym, err)
	}
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}

	ref, err := p.exporter.ExportSummary(ctx, summary)
	if err != nil {
		return fmt.Errorf("export summary: %w", err)
	}

	slog.InfoContext(ctx, "Exported monthly summary",
		"user_id", summary.UserID,
		"year_month", ym.String(),
		"total_drinks", summary.TotalDrinks,
		"ref", ref)

	return nil
}
