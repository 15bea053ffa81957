package ports

import (
	"context"
	"errors"
	"time"

	"drinktracker/internal/core"
)

// ErrNotFound is returned by stores when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

// Ports for the persistence collaborator and outbound adapters.
type (
	// EntryStore is the append-only drink ledger.
	EntryStore interface {
		// AppendEntry persists e, assigning ID and CreatedAt when empty.
		AppendEntry(ctx context.Context, e core.Entry) (core.Entry, error)
		// AppendEntryChecked calls check with the current net total of e's
		// day and appends e only when check returns nil. The read and the
		// write are atomic with respect to other appends.
		AppendEntryChecked(ctx context.Context, e core.Entry, check func(dayTotal int) error) (core.Entry, error)
		ListEntries(ctx context.Context, userID string) ([]core.Entry, error)
		// ListEntriesBetween returns entries whose day is in [from, to].
		ListEntriesBetween(ctx context.Context, userID string, from, to core.CalendarDay) ([]core.Entry, error)
		// DayTotal returns the net delta for a day and whether it has any entry.
		DayTotal(ctx context.Context, userID string, day core.CalendarDay) (total int, tracked bool, err error)
	}

	SummaryStore interface {
		// UpsertMonthlySummary inserts or overwrites the row keyed by
		// (user, year, month).
		UpsertMonthlySummary(ctx context.Context, s core.MonthlySummary) error
		GetMonthlySummary(ctx context.Context, userID string, ym core.YearMonth) (core.MonthlySummary, error)
		// ListMonthlySummaries returns up to limit rows, newest month first.
		ListMonthlySummaries(ctx context.Context, userID string, limit int) ([]core.MonthlySummary, error)
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (core.Profile, error)
		UpsertProfile(ctx context.Context, p core.Profile) error
	}

	RollupStore interface {
		UsersWithEntriesBetween(ctx context.Context, from, to core.CalendarDay) ([]string, error)
		// HasRollupRun reports whether ym was rolled up with no failed user.
		HasRollupRun(ctx context.Context, ym core.YearMonth) (bool, error)
		RecordRollupRun(ctx context.Context, run RollupRun) error
	}

	// Store is everything the services need from a backend.
	Store interface {
		EntryStore
		SummaryStore
		ProfileStore
		RollupStore
		Ping(ctx context.Context) error
	}

	// SummaryExporter mirrors computed summaries to an external destination.
	SummaryExporter interface {
		ExportSummary(ctx context.Context, s core.MonthlySummary) (ref string, err error)
	}

	// SummaryPublisher announces that a summary was (re)computed.
	SummaryPublisher interface {
		PublishSummaryComputed(ctx context.Context, userID string, ym core.YearMonth) error
	}
)

// RollupRun records a completed monthly aggregation.
type RollupRun struct {
	Month       core.YearMonth
	Processed   int
	Skipped     int
	Failed      int
	CompletedAt time.Time
}
