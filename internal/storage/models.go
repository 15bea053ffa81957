package storage

// Row types mirror the SQLite schema. Days are stored as YYYY-MM-DD text and
// timestamps as RFC 3339 text.

type DrinkEntry struct {
	ID        string
	UserID    string
	Day       string
	Delta     int64
	CreatedAt string
}

type MonthlySummary struct {
	UserID        string
	Year          int64
	Month         int64
	TotalDrinks   int64
	AveragePerDay float64
	DaysTracked   int64
	ComputedAt    string
}

type User struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt string
	UpdatedAt string
}

type RollupRun struct {
	Year        int64
	Month       int64
	Processed   int64
	Skipped     int64
	Failed      int64
	CompletedAt string
}
