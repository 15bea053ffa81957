package core

import (
	"errors"
	"strings"
	"time"
)

const (
	DeltaIncrement = 1
	DeltaDecrement = -1
	DeltaZero      = 0
)

type (
	// DailyTotals maps each tracked day to the sum of its entry deltas.
	// Presence in the map is what makes a day tracked, even with a zero or
	// negative sum.
	DailyTotals map[CalendarDay]int

	Entry struct {
		ID        string
		UserID    string
		Day       CalendarDay
		Delta     int // +1, -1 or 0 (zero-confirmation)
		CreatedAt time.Time
	}

	StreakResult struct {
		CurrentTrackingStreak int
		LongestTrackingStreak int
		CurrentSoberStreak    int
		LongestSoberStreak    int
		LastTrackedDay        *CalendarDay // nil when nothing was ever tracked
	}

	MonthlySummary struct {
		UserID        string
		Year          int
		Month         int // 1-12
		TotalDrinks   int
		AveragePerDay float64
		DaysTracked   int
		ComputedAt    time.Time
	}

	// DayCount is a clamped per-day total used by calendar views.
	DayCount struct {
		Day   CalendarDay
		Count int
	}

	Profile struct {
		UserID   string
		Name     string
		Timezone string // IANA name, empty means UTC
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidDelta    = errors.New("delta must be 1, -1 or 0")
	ErrEmptyUser       = errors.New("empty user id")
	ErrFutureDay       = errors.New("cannot track a future day")
	ErrBackfillWindow  = errors.New("day is outside the backfill window")
	ErrNegativeTotal   = errors.New("daily total cannot go below zero")
	ErrDayHasDrinks    = errors.New("day already has drinks recorded")
	ErrNoTrackedDays   = errors.New("no tracked days in month")
	ErrMonthNotElapsed = errors.New("month has not ended yet")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

func (e Entry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if err := e.Day.Validate(); err != nil {
		return err
	}
	return ValidateDelta(e.Delta)
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUser
	}
	if len(p.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if _, err := LoadLocation(p.Timezone); err != nil {
		return err
	}
	return nil
}

// YearMonth returns the calendar month the summary covers.
func (s MonthlySummary) YearMonth() YearMonth {
	return YearMonth{Year: s.Year, Month: time.Month(s.Month)}
}
