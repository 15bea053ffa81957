package core

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth validates and builds a YearMonth from raw integers.
func NewYearMonth(year, month int) (YearMonth, error) {
	ym := YearMonth{Year: year, Month: time.Month(month)}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, err
	}
	return ym, nil
}

// YearMonthOf returns the month containing day.
func YearMonthOf(day CalendarDay) YearMonth {
	return YearMonth{Year: day.Year, Month: day.Month}
}

// PreviousMonth returns the month before the one containing today. This is
// the month the periodic rollup aggregates.
func PreviousMonth(today CalendarDay) YearMonth {
	return YearMonthOf(today).Previous()
}

func (ym YearMonth) Validate() error {
	if ym.Month < time.January || ym.Month > time.December {
		return ErrInvalidMonth
	}
	if ym.Year < 1970 || ym.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

func (ym YearMonth) FirstDay() CalendarDay {
	return CalendarDay{Year: ym.Year, Month: ym.Month, Day: 1}
}

func (ym YearMonth) LastDay() CalendarDay {
	return NewCalendarDay(ym.Year, ym.Month+1, 0)
}

func (ym YearMonth) Previous() YearMonth {
	return YearMonthOf(ym.FirstDay().Prev())
}

func (ym YearMonth) Contains(day CalendarDay) bool {
	return day.Year == ym.Year && day.Month == ym.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Aggregate computes the monthly summary for one user. Totals outside ym are
// ignored, negative days count as zero drinks but still count as tracked.
// It returns ErrNoTrackedDays when the month has nothing tracked; callers
// skip the user rather than storing a row.
func Aggregate(userID string, ym YearMonth, totals DailyTotals) (MonthlySummary, error) {
	if err := ym.Validate(); err != nil {
		return MonthlySummary{}, err
	}

	month := totals.InMonth(ym)
	if len(month) == 0 {
		return MonthlySummary{}, ErrNoTrackedDays
	}

	total := 0
	for _, v := range month {
		total += clamp(v)
	}

	return MonthlySummary{
		UserID:        userID,
		Year:          ym.Year,
		Month:         int(ym.Month),
		TotalDrinks:   total,
		AveragePerDay: float64(total) / float64(len(month)),
		DaysTracked:   len(month),
	}, nil
}
