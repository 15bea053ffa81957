package worker

import (
	"context"
	"log/slog"
	"time"

	"drinktracker/internal/services"
)

// RollupWorker runs the previous-month rollup once at start and then on
// every tick. Months already rolled up are skipped by the processor.
type RollupWorker struct {
	processor *services.MonthlyRollupProcessor
	interval  time.Duration
	now       services.Clock
}

func NewRollupWorker(processor *services.MonthlyRollupProcessor, interval time.Duration, now services.Clock) *RollupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &RollupWorker{
		processor: processor,
		interval:  interval,
		now:       now,
	}
}

// Run blocks until ctx is cancelled.
func (w *RollupWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Monthly rollup worker configured", "interval", w.interval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Monthly rollup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce never fails the loop; errors are logged and retried on the next
// tick.
func (w *RollupWorker) runOnce(ctx context.Context) {
	now := w.now()
	report, err := w.processor.ProcessPreviousMonth(ctx, now, false)
	if err != nil {
		if ctx.Err() == nil {
			slog.ErrorContext(ctx, "Monthly rollup failed",
				"year_month", report.YearMonth.String(),
				"error", err)
		}
		return
	}
	if report.AlreadyDone {
		return
	}

	slog.InfoContext(ctx, "Monthly rollup run complete",
		"message", report.Message(),
		"skipped", report.Skipped,
		"failed", report.Failed,
		"next_check", now.Add(w.interval).Format(time.RFC3339))
}
