package core

import "fmt"

// DefaultMaxBackfillDays bounds how far back a zero-confirmation may go.
const DefaultMaxBackfillDays = 90

func ValidateDelta(delta int) error {
	switch delta {
	case DeltaIncrement, DeltaDecrement, DeltaZero:
		return nil
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidDelta, delta)
	}
}

// ValidateEntryDay rejects days after today and days more than
// maxBackfillDays before it.
func ValidateEntryDay(day, today CalendarDay, maxBackfillDays int) error {
	if err := day.Validate(); err != nil {
		return err
	}
	if day.After(today) {
		return ErrFutureDay
	}
	if day.Before(today.AddDays(-maxBackfillDays)) {
		return fmt.Errorf("%w: %s is more than %d days before %s", ErrBackfillWindow, day, maxBackfillDays, today)
	}
	return nil
}

// ValidateDecrement rejects a -1 that would take the day below zero.
func ValidateDecrement(currentTotal int) error {
	if currentTotal <= 0 {
		return ErrNegativeTotal
	}
	return nil
}

// ValidateZeroConfirmation rejects confirming a sober day that already has
// drinks on it.
func ValidateZeroConfirmation(currentTotal int) error {
	if currentTotal > 0 {
		return ErrDayHasDrinks
	}
	return nil
}
