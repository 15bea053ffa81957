package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"drinktracker/internal/core"
	"drinktracker/internal/ports"
)

// DefaultRollupConcurrency bounds how many users are aggregated at once.
const DefaultRollupConcurrency = 4

// RollupReport describes one pass of the monthly aggregation.
type RollupReport struct {
	YearMonth core.YearMonth
	Processed int
	Skipped   int
	Failed    int
	// AlreadyDone is set when the month had been rolled up before and the
	// run was not forced.
	AlreadyDone bool
}

// Message is the human readable outcome returned by the cron trigger.
func (r RollupReport) Message() string {
	return fmt.Sprintf("Processed %d users for %d-%d", r.Processed, r.YearMonth.Year, int(r.YearMonth.Month))
}

// MonthlyRollupProcessor writes one MonthlySummary per user for a finished
// month.
type MonthlyRollupProcessor struct {
	store       ports.Store
	publisher   ports.SummaryPublisher
	now         Clock
	concurrency int
}

// NewMonthlyRollupProcessor creates a processor. publisher may be nil.
func NewMonthlyRollupProcessor(store ports.Store, publisher ports.SummaryPublisher, now Clock, concurrency int) *MonthlyRollupProcessor {
	if now == nil {
		now = time.Now
	}
	if concurrency <= 0 {
		concurrency = DefaultRollupConcurrency
	}
	return &MonthlyRollupProcessor{
		store:       store,
		publisher:   publisher,
		now:         now,
		concurrency: concurrency,
	}
}

// ProcessPreviousMonth rolls up the month before now (UTC). Unless force is
// set, a month that already has a recorded run is left alone.
func (p *MonthlyRollupProcessor) ProcessPreviousMonth(ctx context.Context, now time.Time, force bool) (RollupReport, error) {
	ym := core.PreviousMonth(core.DayOf(now.UTC()))

	if !force {
		done, err := p.store.HasRollupRun(ctx, ym)
		if err != nil {
			return RollupReport{YearMonth: ym}, fmt.Errorf("check rollup run: %w", err)
		}
		if done {
			slog.DebugContext(ctx, "Monthly rollup already done", "year_month", ym.String())
			return RollupReport{YearMonth: ym, AlreadyDone: true}, nil
		}
	}

	return p.rollup(ctx, ym)
}

// ProcessMonth aggregates ym for every user with at least one entry in it.
// Per-user failures are counted and do not stop the other users. ym must
// have ended (UTC) by the processor's clock; otherwise ErrMonthNotElapsed.
func (p *MonthlyRollupProcessor) ProcessMonth(ctx context.Context, ym core.YearMonth) (RollupReport, error) {
	if err := ym.Validate(); err != nil {
		return RollupReport{YearMonth: ym}, err
	}
	current := core.YearMonthOf(core.DayOf(p.now().UTC()))
	if !ym.FirstDay().Before(current.FirstDay()) {
		return RollupReport{YearMonth: ym}, fmt.Errorf("%w: %s (current month %s)", core.ErrMonthNotElapsed, ym, current)
	}
	return p.rollup(ctx, ym)
}

func (p *MonthlyRollupProcessor) rollup(ctx context.Context, ym core.YearMonth) (RollupReport, error) {
	report := RollupReport{YearMonth: ym}
	if err := ym.Validate(); err != nil {
		return report, err
	}
	if p.store == nil {
		return report, fmt.Errorf("processor not properly initialized")
	}

	users, err := p.store.UsersWithEntriesBetween(ctx, ym.FirstDay(), ym.LastDay())
	if err != nil {
		return report, fmt.Errorf("list users for %s: %w", ym, err)
	}

	slog.InfoContext(ctx, "Processing monthly rollup",
		"year_month", ym.String(),
		"users", len(users),
		"concurrency", p.concurrency)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(p.concurrency)

	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := p.processUser(ctx, userID, ym)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeProcessed:
				report.Processed++
			case outcomeSkipped:
				report.Skipped++
			default:
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if err := p.store.RecordRollupRun(ctx, ports.RollupRun{
		Month:       ym,
		Processed:   report.Processed,
		Skipped:     report.Skipped,
		Failed:      report.Failed,
		CompletedAt: p.now().UTC(),
	}); err != nil {
		// The summaries are written; only the guard row is missing.
		slog.ErrorContext(ctx, "Failed to record rollup run",
			"year_month", ym.String(),
			"error", err)
	}

	if report.Failed > 0 {
		slog.WarnContext(ctx, "Monthly rollup incomplete, month stays eligible for retry",
			"year_month", ym.String(),
			"failed", report.Failed)
	}

	slog.InfoContext(ctx, "Monthly rollup complete",
		"year_month", ym.String(),
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

type rollupOutcome int

const (
	outcomeProcessed rollupOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (p *MonthlyRollupProcessor) processUser(ctx context.Context, userID string, ym core.YearMonth) rollupOutcome {
	entries, err := p.store.ListEntriesBetween(ctx, userID, ym.FirstDay(), ym.LastDay())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load month entries",
			"user_id", userID,
			"year_month", ym.String(),
			"error", err)
		return outcomeFailed
	}

	summary, err := core.Aggregate(userID, ym, core.Reduce(entries))
	if errors.Is(err, core.ErrNoTrackedDays) {
		return outcomeSkipped
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to aggregate month",
			"user_id", userID,
			"year_month", ym.String(),
			"error", err)
		return outcomeFailed
	}
	summary.ComputedAt = p.now().UTC()

	if err := p.store.UpsertMonthlySummary(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "Failed to upsert monthly summary",
			"user_id", userID,
			"year_month", ym.String(),
			"error", err)
		return outcomeFailed
	}

	if p.publisher != nil {
		if err := p.publisher.PublishSummaryComputed(ctx, userID, ym); err != nil {
			// Summary is saved; the export can be replayed by rerunning the month.
			slog.WarnContext(ctx, "Failed to publish summary event",
				"user_id", userID,
				"year_month", ym.String(),
				"error", err)
		}
	}

	return outcomeProcessed
}
