package storage

import (
	"context"
	"database/sql"
)

const createEntry = `
INSERT INTO drink_entries (id, user_id, day, delta, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, user_id, day, delta, created_at
`

type CreateEntryParams struct {
	ID        string
	UserID    string
	Day       string
	Delta     int64
	CreatedAt string
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (DrinkEntry, error) {
	row := q.db.QueryRowContext(ctx, createEntry,
		arg.ID,
		arg.UserID,
		arg.Day,
		arg.Delta,
		arg.CreatedAt,
	)
	var i DrinkEntry
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Day,
		&i.Delta,
		&i.CreatedAt,
	)
	return i, err
}

const listEntriesByUser = `
SELECT id, user_id, day, delta, created_at
FROM drink_entries
WHERE user_id = ?
ORDER BY day DESC, created_at DESC
`

func (q *Queries) ListEntriesByUser(ctx context.Context, userID string) ([]DrinkEntry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const listEntriesByUserBetween = `
SELECT id, user_id, day, delta, created_at
FROM drink_entries
WHERE user_id = ? AND day >= ? AND day <= ?
ORDER BY day DESC, created_at DESC
`

type ListEntriesByUserBetweenParams struct {
	UserID  string
	FromDay string
	ToDay   string
}

func (q *Queries) ListEntriesByUserBetween(ctx context.Context, arg ListEntriesByUserBetweenParams) ([]DrinkEntry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByUserBetween, arg.UserID, arg.FromDay, arg.ToDay)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]DrinkEntry, error) {
	defer rows.Close()
	var items []DrinkEntry
	for rows.Next() {
		var i DrinkEntry
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Day,
			&i.Delta,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumDay = `
SELECT COALESCE(SUM(delta), 0) AS total, COUNT(*) AS entries
FROM drink_entries
WHERE user_id = ? AND day = ?
`

type SumDayParams struct {
	UserID string
	Day    string
}

type SumDayRow struct {
	Total   int64
	Entries int64
}

func (q *Queries) SumDay(ctx context.Context, arg SumDayParams) (SumDayRow, error) {
	row := q.db.QueryRowContext(ctx, sumDay, arg.UserID, arg.Day)
	var i SumDayRow
	err := row.Scan(&i.Total, &i.Entries)
	return i, err
}

const listUsersWithEntriesBetween = `
SELECT DISTINCT user_id
FROM drink_entries
WHERE day >= ? AND day <= ?
ORDER BY user_id
`

type ListUsersWithEntriesBetweenParams struct {
	FromDay string
	ToDay   string
}

func (q *Queries) ListUsersWithEntriesBetween(ctx context.Context, arg ListUsersWithEntriesBetweenParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsersWithEntriesBetween, arg.FromDay, arg.ToDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		items = append(items, userID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertMonthlySummary = `
INSERT INTO monthly_summaries (user_id, year, month, total_drinks, average_per_day, days_tracked, computed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, year, month) DO UPDATE SET
    total_drinks = excluded.total_drinks,
    average_per_day = excluded.average_per_day,
    days_tracked = excluded.days_tracked,
    computed_at = excluded.computed_at
`

type UpsertMonthlySummaryParams struct {
	UserID        string
	Year          int64
	Month         int64
	TotalDrinks   int64
	AveragePerDay float64
	DaysTracked   int64
	ComputedAt    string
}

func (q *Queries) UpsertMonthlySummary(ctx context.Context, arg UpsertMonthlySummaryParams) error {
	_, err := q.db.ExecContext(ctx, upsertMonthlySummary,
		arg.UserID,
		arg.Year,
		arg.Month,
		arg.TotalDrinks,
		arg.AveragePerDay,
		arg.DaysTracked,
		arg.ComputedAt,
	)
	return err
}

const getMonthlySummary = `
SELECT user_id, year, month, total_drinks, average_per_day, days_tracked, computed_at
FROM monthly_summaries
WHERE user_id = ? AND year = ? AND month = ?
`

type GetMonthlySummaryParams struct {
	UserID string
	Year   int64
	Month  int64
}

func (q *Queries) GetMonthlySummary(ctx context.Context, arg GetMonthlySummaryParams) (MonthlySummary, error) {
	row := q.db.QueryRowContext(ctx, getMonthlySummary, arg.UserID, arg.Year, arg.Month)
	var i MonthlySummary
	err := row.Scan(
		&i.UserID,
		&i.Year,
		&i.Month,
		&i.TotalDrinks,
		&i.AveragePerDay,
		&i.DaysTracked,
		&i.ComputedAt,
	)
	return i, err
}

const listMonthlySummaries = `
SELECT user_id, year, month, total_drinks, average_per_day, days_tracked, computed_at
FROM monthly_summaries
WHERE user_id = ?
ORDER BY year DESC, month DESC
LIMIT ?
`

type ListMonthlySummariesParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListMonthlySummaries(ctx context.Context, arg ListMonthlySummariesParams) ([]MonthlySummary, error) {
	rows, err := q.db.QueryContext(ctx, listMonthlySummaries, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlySummary
	for rows.Next() {
		var i MonthlySummary
		if err := rows.Scan(
			&i.UserID,
			&i.Year,
			&i.Month,
			&i.TotalDrinks,
			&i.AveragePerDay,
			&i.DaysTracked,
			&i.ComputedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getUser = `
SELECT id, name, timezone, created_at, updated_at
FROM users
WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Timezone,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertUser = `
INSERT INTO users (id, name, timezone, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    timezone = excluded.timezone,
    updated_at = excluded.updated_at
`

type UpsertUserParams struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt string
	UpdatedAt string
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) error {
	_, err := q.db.ExecContext(ctx, upsertUser,
		arg.ID,
		arg.Name,
		arg.Timezone,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const countRollupRuns = `
SELECT COUNT(*) FROM rollup_runs WHERE year = ? AND month = ? AND failed = 0
`

type CountRollupRunsParams struct {
	Year  int64
	Month int64
}

func (q *Queries) CountRollupRuns(ctx context.Context, arg CountRollupRunsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRollupRuns, arg.Year, arg.Month)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const upsertRollupRun = `
INSERT INTO rollup_runs (year, month, processed, skipped, failed, completed_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (year, month) DO UPDATE SET
    processed = excluded.processed,
    skipped = excluded.skipped,
    failed = excluded.failed,
    completed_at = excluded.completed_at
`

func (q *Queries) UpsertRollupRun(ctx context.Context, arg RollupRun) error {
	_, err := q.db.ExecContext(ctx, upsertRollupRun,
		arg.Year,
		arg.Month,
		arg.Processed,
		arg.Skipped,
		arg.Failed,
		arg.CompletedAt,
	)
	return err
}
