package core

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the canonical YYYY-MM-DD form of a CalendarDay.
const DayLayout = "2006-01-02"

// CalendarDay is a date with no time component and no timezone. It is
// comparable, so it can key maps directly.
type CalendarDay struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDay builds a day, normalizing overflow the way time.Date does
// (e.g. January 32 becomes February 1).
func NewCalendarDay(year int, month time.Month, day int) CalendarDay {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) CalendarDay {
	y, m, d := t.Date()
	return CalendarDay{Year: y, Month: m, Day: d}
}

// ParseCalendarDay parses a YYYY-MM-DD string.
func ParseCalendarDay(s string) (CalendarDay, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDay{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day.
func (d CalendarDay) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CalendarDay) IsZero() bool {
	return d == CalendarDay{}
}

func (d CalendarDay) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero day", ErrInvalidDay)
	}
	if d.Month < time.January || d.Month > time.December {
		return ErrInvalidMonth
	}
	if NewCalendarDay(d.Year, d.Month, d.Day) != d {
		return fmt.Errorf("%w: %s", ErrInvalidDay, d)
	}
	return nil
}

// Compare orders days lexicographically on (year, month, day). It returns
// -1, 0 or 1.
func (d CalendarDay) Compare(o CalendarDay) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d CalendarDay) Before(o CalendarDay) bool { return d.Compare(o) < 0 }

func (d CalendarDay) After(o CalendarDay) bool { return d.Compare(o) > 0 }

// AddDays moves n calendar days forward (or backward for negative n),
// rolling over months and years.
func (d CalendarDay) AddDays(n int) CalendarDay {
	return DayOf(d.Time().AddDate(0, 0, n))
}

func (d CalendarDay) Next() CalendarDay { return d.AddDays(1) }

func (d CalendarDay) Prev() CalendarDay { return d.AddDays(-1) }

// IsDayAfter reports whether d immediately follows o.
func (d CalendarDay) IsDayAfter(o CalendarDay) bool {
	return d == o.Next()
}

// DaysBetween returns the signed number of calendar days from `from` to `to`.
func DaysBetween(from, to CalendarDay) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}

func (d CalendarDay) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDay) UnmarshalText(text []byte) error {
	parsed, err := ParseCalendarDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
