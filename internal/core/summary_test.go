package core

import (
	"errors"
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	feb := YearMonth{Year: 2024, Month: time.February}

	t.Run("basic month", func(t *testing.T) {
		totals := DailyTotals{
			day("2024-02-01"): 2,
			day("2024-02-02"): 0,
			day("2024-02-03"): 1,
		}
		got, err := Aggregate("u1", feb, totals)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if got.TotalDrinks != 3 || got.DaysTracked != 3 || got.AveragePerDay != 1.0 {
			t.Fatalf("unexpected summary %+v", got)
		}
		if got.UserID != "u1" || got.Year != 2024 || got.Month != 2 {
			t.Fatalf("unexpected key %+v", got)
		}
	})

	t.Run("negative days clamp but count as tracked", func(t *testing.T) {
		totals := DailyTotals{
			day("2024-02-10"): -1,
			day("2024-02-11"): 3,
		}
		got, err := Aggregate("u1", feb, totals)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if got.TotalDrinks != 3 || got.DaysTracked != 2 || got.AveragePerDay != 1.5 {
			t.Fatalf("unexpected summary %+v", got)
		}
	})

	t.Run("days outside the month are ignored", func(t *testing.T) {
		totals := DailyTotals{
			day("2024-01-31"): 5,
			day("2024-02-29"): 1,
			day("2024-03-01"): 5,
		}
		got, err := Aggregate("u1", feb, totals)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if got.TotalDrinks != 1 || got.DaysTracked != 1 {
			t.Fatalf("unexpected summary %+v", got)
		}
	})

	t.Run("no tracked days is a skip signal", func(t *testing.T) {
		totals := DailyTotals{day("2024-03-01"): 2}
		_, err := Aggregate("u1", feb, totals)
		if !errors.Is(err, ErrNoTrackedDays) {
			t.Fatalf("expected ErrNoTrackedDays, got %v", err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		totals := DailyTotals{day("2024-02-05"): 4, day("2024-02-06"): 0}
		a, _ := Aggregate("u1", feb, totals)
		b, _ := Aggregate("u1", feb, totals)
		if a != b {
			t.Fatalf("repeat aggregation differs: %+v vs %+v", a, b)
		}
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := Aggregate("u1", YearMonth{Year: 2024, Month: 13}, DailyTotals{})
		if !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("expected ErrInvalidMonth, got %v", err)
		}
	})
}

func TestYearMonth(t *testing.T) {
	tests := []struct {
		name     string
		ym       YearMonth
		first    string
		last     string
		previous YearMonth
	}{
		{"leap february", YearMonth{2024, time.February}, "2024-02-01", "2024-02-29", YearMonth{2024, time.January}},
		{"plain february", YearMonth{2023, time.February}, "2023-02-01", "2023-02-28", YearMonth{2023, time.January}},
		{"january wraps year", YearMonth{2024, time.January}, "2024-01-01", "2024-01-31", YearMonth{2023, time.December}},
		{"december", YearMonth{2023, time.December}, "2023-12-01", "2023-12-31", YearMonth{2023, time.November}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ym.FirstDay(); got != day(tt.first) {
				t.Errorf("FirstDay() = %s, want %s", got, tt.first)
			}
			if got := tt.ym.LastDay(); got != day(tt.last) {
				t.Errorf("LastDay() = %s, want %s", got, tt.last)
			}
			if got := tt.ym.Previous(); got != tt.previous {
				t.Errorf("Previous() = %s, want %s", got, tt.previous)
			}
		})
	}

	if got := PreviousMonth(day("2024-03-01")); got != (YearMonth{2024, time.February}) {
		t.Fatalf("PreviousMonth = %s", got)
	}
	if !(YearMonth{2024, time.March}).Contains(day("2024-03-31")) {
		t.Fatalf("Contains should include the last day")
	}
	if _, err := NewYearMonth(2024, 0); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := NewYearMonth(1900, 5); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}
