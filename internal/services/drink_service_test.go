package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"drinktracker/internal/cache"
	"drinktracker/internal/core"
	"drinktracker/internal/memory"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func mustDay(t *testing.T, s string) core.CalendarDay {
	t.Helper()
	d, err := core.ParseCalendarDay(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func newTestService(now time.Time) (*DrinkService, *memory.Store, *cache.LRUCache[core.StreakResult]) {
	store := memory.New()
	streaks := cache.NewLRUCache[core.StreakResult](100, time.Minute)
	return NewDrinkService(store, streaks, fixedClock(now), 90), store, streaks
}

func TestDrinkService_RecordDrink(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if _, err := svc.RecordDrink(ctx, "u1", 1); err != nil {
			t.Fatalf("RecordDrink(+1): %v", err)
		}
	}
	e, err := svc.RecordDrink(ctx, "u1", -1)
	if err != nil {
		t.Fatalf("RecordDrink(-1): %v", err)
	}
	if e.Day != mustDay(t, "2024-03-15") {
		t.Errorf("entry day = %s, want 2024-03-15", e.Day)
	}

	today, err := svc.Today(ctx, "u1")
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if today.Count != 1 || !today.Tracked {
		t.Errorf("Today = %+v, want count 1 tracked", today)
	}

	tests := []struct {
		name  string
		delta int
		want  error
	}{
		{"zero is not a drink", 0, core.ErrInvalidDelta},
		{"two at once", 2, core.ErrInvalidDelta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordDrink(ctx, "u1", tt.delta); !errors.Is(err, tt.want) {
				t.Errorf("RecordDrink(%d) error = %v, want %v", tt.delta, err, tt.want)
			}
		})
	}

	t.Run("decrement below zero", func(t *testing.T) {
		if _, err := svc.RecordDrink(ctx, "u1", -1); err != nil {
			t.Fatalf("RecordDrink(-1) back to zero: %v", err)
		}
		if _, err := svc.RecordDrink(ctx, "u1", -1); !errors.Is(err, core.ErrNegativeTotal) {
			t.Fatalf("expected ErrNegativeTotal, got %v", err)
		}
		if _, err := svc.RecordDrink(ctx, "u2", -1); !errors.Is(err, core.ErrNegativeTotal) {
			t.Fatalf("decrement on an untracked day: expected ErrNegativeTotal, got %v", err)
		}
	})

	t.Run("empty user", func(t *testing.T) {
		if _, err := svc.RecordDrink(ctx, "", 1); !errors.Is(err, core.ErrEmptyUser) {
			t.Fatalf("expected ErrEmptyUser, got %v", err)
		}
	})
}

// slowStore widens the window between reading a day's total and writing the
// next entry.
type slowStore struct {
	*memory.Store
}

func (s slowStore) DayTotal(ctx context.Context, userID string, day core.CalendarDay) (int, bool, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.DayTotal(ctx, userID, day)
}

func (s slowStore) AppendEntryChecked(ctx context.Context, e core.Entry, check func(int) error) (core.Entry, error) {
	return s.Store.AppendEntryChecked(ctx, e, func(total int) error {
		time.Sleep(2 * time.Millisecond)
		return check(total)
	})
}

func TestDrinkService_ConcurrentDecrementsStayNonNegative(t *testing.T) {
	ctx := context.Background()
	store := slowStore{memory.New()}
	svc := NewDrinkService(store, nil, fixedClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)), 90)

	if _, err := svc.RecordDrink(ctx, "u1", 1); err != nil {
		t.Fatalf("RecordDrink(+1): %v", err)
	}

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordDrink(ctx, "u1", -1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, core.ErrNegativeTotal):
				refused++
			default:
				t.Errorf("RecordDrink(-1): %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || refused != workers-1 {
		t.Errorf("ok = %d, refused = %d; want 1 and %d", ok, refused, workers-1)
	}
	total, _, err := store.Store.DayTotal(ctx, "u1", mustDay(t, "2024-03-15"))
	if err != nil {
		t.Fatalf("DayTotal: %v", err)
	}
	if total != 0 {
		t.Errorf("raw day total = %d, want 0", total)
	}
}

func TestDrinkService_TodayUsesProfileTimezone(t *testing.T) {
	ctx := context.Background()
	// 05:00 UTC on the 10th is still the evening of the 9th in Los Angeles.
	svc, _, _ := newTestService(time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC))

	if _, err := svc.UpdateProfile(ctx, core.Profile{UserID: "la", Timezone: "America/Los_Angeles"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	e, err := svc.RecordDrink(ctx, "la", 1)
	if err != nil {
		t.Fatalf("RecordDrink: %v", err)
	}
	if e.Day != mustDay(t, "2024-03-09") {
		t.Errorf("entry day = %s, want 2024-03-09", e.Day)
	}

	e, err = svc.RecordDrink(ctx, "utc-user", 1)
	if err != nil {
		t.Fatalf("RecordDrink: %v", err)
	}
	if e.Day != mustDay(t, "2024-03-10") {
		t.Errorf("entry day for unknown user = %s, want 2024-03-10", e.Day)
	}
}

func TestDrinkService_ConfirmZero(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))

	if _, err := svc.RecordDrink(ctx, "u1", 1); err != nil {
		t.Fatalf("RecordDrink: %v", err)
	}

	day := func(s string) *core.CalendarDay {
		d := mustDay(t, s)
		return &d
	}

	tests := []struct {
		name string
		day  *core.CalendarDay
		want error
	}{
		{"yesterday", day("2024-06-14"), nil},
		{"yesterday again", day("2024-06-14"), nil},
		{"today has drinks", nil, core.ErrDayHasDrinks},
		{"future", day("2024-06-16"), core.ErrFutureDay},
		{"window edge", day("2024-03-17"), nil},
		{"outside window", day("2024-03-16"), core.ErrBackfillWindow},
		{"invalid day", &core.CalendarDay{Year: 2024, Month: 2, Day: 30}, core.ErrInvalidDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ConfirmZero(ctx, "u1", tt.day)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("ConfirmZero: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("ConfirmZero error = %v, want %v", err, tt.want)
			}
		})
	}

	st, err := svc.DayTotal(ctx, "u1", mustDay(t, "2024-06-14"))
	if err != nil {
		t.Fatalf("DayTotal: %v", err)
	}
	if st.Count != 0 || !st.Tracked {
		t.Errorf("confirmed day = %+v, want tracked with count 0", st)
	}
}

func TestDrinkService_StreaksCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	svc, _, streaks := newTestService(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	empty, err := svc.Streaks(ctx, "u1")
	if err != nil {
		t.Fatalf("Streaks: %v", err)
	}
	if empty.LastTrackedDay != nil || empty.CurrentTrackingStreak != 0 {
		t.Fatalf("empty history should give zero streaks, got %+v", empty)
	}
	if streaks.Size() != 1 {
		t.Fatalf("streak result should be cached, cache size %d", streaks.Size())
	}

	if _, err := svc.RecordDrink(ctx, "u1", 1); err != nil {
		t.Fatalf("RecordDrink: %v", err)
	}
	yesterday := mustDay(t, "2024-03-14")
	if _, err := svc.ConfirmZero(ctx, "u1", &yesterday); err != nil {
		t.Fatalf("ConfirmZero: %v", err)
	}

	got, err := svc.Streaks(ctx, "u1")
	if err != nil {
		t.Fatalf("Streaks: %v", err)
	}
	if got.CurrentTrackingStreak != 2 || got.LongestTrackingStreak != 2 {
		t.Errorf("tracking = %d/%d, want 2/2", got.CurrentTrackingStreak, got.LongestTrackingStreak)
	}
	if got.CurrentSoberStreak != 0 || got.LongestSoberStreak != 1 {
		t.Errorf("sober = %d/%d, want 0/1", got.CurrentSoberStreak, got.LongestSoberStreak)
	}
	if got.LastTrackedDay == nil || *got.LastTrackedDay != mustDay(t, "2024-03-15") {
		t.Errorf("LastTrackedDay = %v, want 2024-03-15", got.LastTrackedDay)
	}
}

func TestDrinkService_Month(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	for _, e := range []core.Entry{
		{UserID: "u1", Day: mustDay(t, "2024-02-29"), Delta: 1},
		{UserID: "u1", Day: mustDay(t, "2024-03-02"), Delta: 1},
		{UserID: "u1", Day: mustDay(t, "2024-03-02"), Delta: 1},
		{UserID: "u1", Day: mustDay(t, "2024-03-01"), Delta: 0},
		{UserID: "u1", Day: mustDay(t, "2024-03-05"), Delta: -1},
	} {
		if _, err := store.AppendEntry(ctx, e); err != nil {
			t.Fatalf("AppendEntry: %v", err)
		}
	}

	days, err := svc.Month(ctx, "u1", core.YearMonth{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	want := []core.DayCount{
		{Day: mustDay(t, "2024-03-01"), Count: 0},
		{Day: mustDay(t, "2024-03-02"), Count: 2},
		{Day: mustDay(t, "2024-03-05"), Count: 0},
	}
	if len(days) != len(want) {
		t.Fatalf("Month = %+v, want %+v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, days[i], want[i])
		}
	}

	if _, err := svc.Month(ctx, "u1", core.YearMonth{Year: 2024, Month: 13}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestDrinkService_Profile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Now())

	p, err := svc.Profile(ctx, "nobody")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Timezone != "UTC" || p.UserID != "nobody" {
		t.Errorf("default profile = %+v", p)
	}

	if _, err := svc.UpdateProfile(ctx, core.Profile{UserID: "u1", Timezone: "Mars/Olympus"}); !errors.Is(err, core.ErrInvalidTimezone) {
		t.Errorf("expected ErrInvalidTimezone, got %v", err)
	}

	saved, err := svc.UpdateProfile(ctx, core.Profile{UserID: "u1", Name: "Uno"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if saved.Timezone != "UTC" {
		t.Errorf("empty timezone should default to UTC, got %q", saved.Timezone)
	}
}

func TestDrinkService_Summaries(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(time.Now())

	for m := 1; m <= 12; m++ {
		_ = store.UpsertMonthlySummary(ctx, core.MonthlySummary{UserID: "u1", Year: 2023, Month: m, TotalDrinks: m, DaysTracked: 1, AveragePerDay: float64(m)})
	}
	_ = store.UpsertMonthlySummary(ctx, core.MonthlySummary{UserID: "u1", Year: 2024, Month: 1, TotalDrinks: 5, DaysTracked: 5, AveragePerDay: 1})

	got, err := svc.Summaries(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(got) != DefaultSummaryLimit {
		t.Fatalf("Summaries returned %d rows, want %d", len(got), DefaultSummaryLimit)
	}
	if got[0].Year != 2024 || got[0].Month != 1 {
		t.Errorf("newest summary first, got %d-%d", got[0].Year, got[0].Month)
	}
}
