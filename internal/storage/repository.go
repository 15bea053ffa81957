package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"drinktracker/internal/core"
	"drinktracker/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations first on their own connection
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; the rollup fans out across goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AppendEntry implements ports.EntryStore
func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	row, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		ID:        e.ID,
		UserID:    e.UserID,
		Day:       e.Day.String(),
		Delta:     int64(e.Delta),
		CreatedAt: formatTime(e.CreatedAt),
	})
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	slog.DebugContext(ctx, "Drink entry saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"day", row.Day,
		"delta", row.Delta)

	return toCoreEntry(row)
}

// AppendEntryChecked implements ports.EntryStore. The day sum and the insert
// share one transaction; the repository holds a single connection, so
// concurrent callers in this process are serialised.
func (r *SQLiteRepository) AppendEntryChecked(ctx context.Context, e core.Entry, check func(dayTotal int) error) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Entry{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	sum, err := q.SumDay(ctx, SumDayParams{UserID: e.UserID, Day: e.Day.String()})
	if err != nil {
		return core.Entry{}, fmt.Errorf("sum day %s: %w", e.Day, err)
	}
	if err := check(int(sum.Total)); err != nil {
		return core.Entry{}, err
	}

	row, err := q.CreateEntry(ctx, CreateEntryParams{
		ID:        e.ID,
		UserID:    e.UserID,
		Day:       e.Day.String(),
		Delta:     int64(e.Delta),
		CreatedAt: formatTime(e.CreatedAt),
	})
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Entry{}, fmt.Errorf("commit entry: %w", err)
	}

	return toCoreEntry(row)
}

// ListEntries implements ports.EntryStore
func (r *SQLiteRepository) ListEntries(ctx context.Context, userID string) ([]core.Entry, error) {
	rows, err := r.queries.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries for user %s: %w", userID, err)
	}
	return toCoreEntries(rows)
}

// ListEntriesBetween implements ports.EntryStore
func (r *SQLiteRepository) ListEntriesBetween(ctx context.Context, userID string, from, to core.CalendarDay) ([]core.Entry, error) {
	rows, err := r.queries.ListEntriesByUserBetween(ctx, ListEntriesByUserBetweenParams{
		UserID:  userID,
		FromDay: from.String(),
		ToDay:   to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list entries for user %s between %s and %s: %w", userID, from, to, err)
	}
	return toCoreEntries(rows)
}

// DayTotal implements ports.EntryStore
func (r *SQLiteRepository) DayTotal(ctx context.Context, userID string, day core.CalendarDay) (int, bool, error) {
	row, err := r.queries.SumDay(ctx, SumDayParams{UserID: userID, Day: day.String()})
	if err != nil {
		return 0, false, fmt.Errorf("sum day %s: %w", day, err)
	}
	return int(row.Total), row.Entries > 0, nil
}

// UpsertMonthlySummary implements ports.SummaryStore
func (r *SQLiteRepository) UpsertMonthlySummary(ctx context.Context, s core.MonthlySummary) error {
	computedAt := s.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now().UTC()
	}

	err := r.queries.UpsertMonthlySummary(ctx, UpsertMonthlySummaryParams{
		UserID:        s.UserID,
		Year:          int64(s.Year),
		Month:         int64(s.Month),
		TotalDrinks:   int64(s.TotalDrinks),
		AveragePerDay: s.AveragePerDay,
		DaysTracked:   int64(s.DaysTracked),
		ComputedAt:    formatTime(computedAt),
	})
	if err != nil {
		return fmt.Errorf("upsert monthly summary (user=%s, year=%d, month=%d): %w", s.UserID, s.Year, s.Month, err)
	}

	slog.InfoContext(ctx, "Monthly summary upserted",
		"user_id", s.UserID,
		"year", s.Year,
		"month", s.Month,
		"total_drinks", s.TotalDrinks,
		"days_tracked", s.DaysTracked)
	return nil
}

// GetMonthlySummary implements ports.SummaryStore
func (r *SQLiteRepository) GetMonthlySummary(ctx context.Context, userID string, ym core.YearMonth) (core.MonthlySummary, error) {
	row, err := r.queries.GetMonthlySummary(ctx, GetMonthlySummaryParams{
		UserID: userID,
		Year:   int64(ym.Year),
		Month:  int64(ym.Month),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlySummary{}, ports.ErrNotFound
	}
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("get monthly summary: %w", err)
	}
	return toCoreSummary(row), nil
}

// ListMonthlySummaries implements ports.SummaryStore
func (r *SQLiteRepository) ListMonthlySummaries(ctx context.Context, userID string, limit int) ([]core.MonthlySummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.queries.ListMonthlySummaries(ctx, ListMonthlySummariesParams{UserID: userID, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("list monthly summaries: %w", err)
	}
	out := make([]core.MonthlySummary, len(rows))
	for i, row := range rows {
		out[i] = toCoreSummary(row)
	}
	return out, nil
}

// GetProfile implements ports.ProfileStore
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	u, err := r.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, ports.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return core.Profile{UserID: u.ID, Name: u.Name, Timezone: u.Timezone}, nil
}

// UpsertProfile implements ports.ProfileStore
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := formatTime(time.Now().UTC())
	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if err := r.queries.UpsertUser(ctx, UpsertUserParams{
		ID:        p.UserID,
		Name:      p.Name,
		Timezone:  tz,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("upsert user %s: %w", p.UserID, err)
	}
	return nil
}

// UsersWithEntriesBetween implements ports.RollupStore
func (r *SQLiteRepository) UsersWithEntriesBetween(ctx context.Context, from, to core.CalendarDay) ([]string, error) {
	users, err := r.queries.ListUsersWithEntriesBetween(ctx, ListUsersWithEntriesBetweenParams{
		FromDay: from.String(),
		ToDay:   to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list users with entries: %w", err)
	}
	return users, nil
}

// HasRollupRun implements ports.RollupStore. Runs with failed users do not
// count.
func (r *SQLiteRepository) HasRollupRun(ctx context.Context, ym core.YearMonth) (bool, error) {
	n, err := r.queries.CountRollupRuns(ctx, CountRollupRunsParams{Year: int64(ym.Year), Month: int64(ym.Month)})
	if err != nil {
		return false, fmt.Errorf("count rollup runs: %w", err)
	}
	return n > 0, nil
}

// RecordRollupRun implements ports.RollupStore
func (r *SQLiteRepository) RecordRollupRun(ctx context.Context, run ports.RollupRun) error {
	err := r.queries.UpsertRollupRun(ctx, RollupRun{
		Year:        int64(run.Month.Year),
		Month:       int64(run.Month.Month),
		Processed:   int64(run.Processed),
		Skipped:     int64(run.Skipped),
		Failed:      int64(run.Failed),
		CompletedAt: formatTime(run.CompletedAt),
	})
	if err != nil {
		return fmt.Errorf("record rollup run %s: %w", run.Month, err)
	}
	return nil
}

func toCoreEntries(rows []DrinkEntry) ([]core.Entry, error) {
	out := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := toCoreEntry(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func toCoreEntry(row DrinkEntry) (core.Entry, error) {
	day, err := core.ParseCalendarDay(row.Day)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", row.ID, err)
	}
	return core.Entry{
		ID:        row.ID,
		UserID:    row.UserID,
		Day:       day,
		Delta:     int(row.Delta),
		CreatedAt: parseTime(row.CreatedAt),
	}, nil
}

func toCoreSummary(row MonthlySummary) core.MonthlySummary {
	return core.MonthlySummary{
		UserID:        row.UserID,
		Year:          int(row.Year),
		Month:         int(row.Month),
		TotalDrinks:   int(row.TotalDrinks),
		AveragePerDay: row.AveragePerDay,
		DaysTracked:   int(row.DaysTracked),
		ComputedAt:    parseTime(row.ComputedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns the zero time for malformed values.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
