package core

import (
	"fmt"
	"strings"
	"time"
)

// LoadLocation resolves an IANA timezone name. Empty and "UTC" map to UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" || timezone == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, timezone, err)
	}
	return loc, nil
}

// TodayIn returns the calendar day it is at instant now in the given
// timezone.
func TodayIn(now time.Time, timezone string) (CalendarDay, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return CalendarDay{}, err
	}
	return DayOf(now.In(loc)), nil
}
