package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"drinktracker/internal/cache"
	"drinktracker/internal/core"
	"drinktracker/internal/ports"
)

// Clock returns the current instant. Services never call time.Now directly.
type Clock func() time.Time

// DefaultSummaryLimit is how many monthly summaries the dashboard shows.
const DefaultSummaryLimit = 12

// DayStatus is the clamped total of one calendar day.
type DayStatus struct {
	Day     core.CalendarDay
	Count   int
	Tracked bool
}

// DrinkService orchestrates ledger writes and read models for one user at a
// time. "Today" is always the user's local calendar day.
type DrinkService struct {
	store           ports.Store
	streaks         cache.Cache[core.StreakResult]
	now             Clock
	maxBackfillDays int
}

func NewDrinkService(store ports.Store, streaks cache.Cache[core.StreakResult], now Clock, maxBackfillDays int) *DrinkService {
	if now == nil {
		now = time.Now
	}
	if maxBackfillDays <= 0 {
		maxBackfillDays = core.DefaultMaxBackfillDays
	}
	return &DrinkService{
		store:           store,
		streaks:         streaks,
		now:             now,
		maxBackfillDays: maxBackfillDays,
	}
}

// RecordDrink appends a +1 or -1 entry for the user's today.
func (s *DrinkService) RecordDrink(ctx context.Context, userID string, delta int) (core.Entry, error) {
	if delta != core.DeltaIncrement && delta != core.DeltaDecrement {
		return core.Entry{}, fmt.Errorf("%w: count must be 1 or -1, got %d", core.ErrInvalidDelta, delta)
	}

	today, err := s.today(ctx, userID)
	if err != nil {
		return core.Entry{}, err
	}

	var before int
	entry, err := s.store.AppendEntryChecked(ctx, core.Entry{
		UserID:    userID,
		Day:       today,
		Delta:     delta,
		CreatedAt: s.now().UTC(),
	}, func(dayTotal int) error {
		before = dayTotal
		if delta == core.DeltaDecrement {
			return core.ValidateDecrement(dayTotal)
		}
		return nil
	})
	if errors.Is(err, core.ErrNegativeTotal) {
		return core.Entry{}, err
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("record drink: %w", err)
	}
	s.invalidateStreaks(userID, today)

	slog.InfoContext(ctx, "Drink recorded",
		"user_id", userID,
		"day", entry.Day.String(),
		"delta", delta,
		"day_total", before+delta)

	return entry, nil
}

// ConfirmZero marks a day as sober. A nil day means the user's today.
func (s *DrinkService) ConfirmZero(ctx context.Context, userID string, day *core.CalendarDay) (core.Entry, error) {
	today, err := s.today(ctx, userID)
	if err != nil {
		return core.Entry{}, err
	}

	target := today
	if day != nil {
		target = *day
	}
	if err := core.ValidateEntryDay(target, today, s.maxBackfillDays); err != nil {
		return core.Entry{}, err
	}

	entry, err := s.store.AppendEntryChecked(ctx, core.Entry{
		UserID:    userID,
		Day:       target,
		Delta:     core.DeltaZero,
		CreatedAt: s.now().UTC(),
	}, core.ValidateZeroConfirmation)
	if errors.Is(err, core.ErrDayHasDrinks) {
		return core.Entry{}, err
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("confirm zero: %w", err)
	}
	s.invalidateStreaks(userID, today)

	slog.InfoContext(ctx, "Zero day confirmed",
		"user_id", userID,
		"day", target.String())

	return entry, nil
}

// DayTotal returns the clamped total for day.
func (s *DrinkService) DayTotal(ctx context.Context, userID string, day core.CalendarDay) (DayStatus, error) {
	if err := day.Validate(); err != nil {
		return DayStatus{}, err
	}
	total, tracked, err := s.store.DayTotal(ctx, userID, day)
	if err != nil {
		return DayStatus{}, fmt.Errorf("load day total: %w", err)
	}
	return DayStatus{Day: day, Count: max(0, total), Tracked: tracked}, nil
}

// Today is DayTotal for the user's local today.
func (s *DrinkService) Today(ctx context.Context, userID string) (DayStatus, error) {
	today, err := s.today(ctx, userID)
	if err != nil {
		return DayStatus{}, err
	}
	return s.DayTotal(ctx, userID, today)
}

// Month returns one clamped count per tracked day of ym, ascending.
func (s *DrinkService) Month(ctx context.Context, userID string, ym core.YearMonth) ([]core.DayCount, error) {
	if err := ym.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntriesBetween(ctx, userID, ym.FirstDay(), ym.LastDay())
	if err != nil {
		return nil, fmt.Errorf("load month entries: %w", err)
	}
	return core.Reduce(entries).InMonth(ym).Counts(), nil
}

// Streaks computes tracking and sober streaks over the user's full history.
func (s *DrinkService) Streaks(ctx context.Context, userID string) (core.StreakResult, error) {
	today, err := s.today(ctx, userID)
	if err != nil {
		return core.StreakResult{}, err
	}

	key := streakCacheKey(userID, today)
	if s.streaks != nil {
		if cached, ok := s.streaks.Get(key); ok {
			slog.DebugContext(ctx, "Streak cache hit", "user_id", userID, "key", key)
			return cached, nil
		}
	}

	entries, err := s.store.ListEntries(ctx, userID)
	if err != nil {
		return core.StreakResult{}, fmt.Errorf("load entries: %w", err)
	}
	result := core.ComputeStreaks(core.Reduce(entries), today)

	if s.streaks != nil {
		s.streaks.Set(key, result)
	}
	return result, nil
}

// Summaries returns the newest limit monthly summaries.
func (s *DrinkService) Summaries(ctx context.Context, userID string, limit int) ([]core.MonthlySummary, error) {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	summaries, err := s.store.ListMonthlySummaries(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	return summaries, nil
}

// Profile returns the stored profile, or a UTC default for unknown users.
func (s *DrinkService) Profile(ctx context.Context, userID string) (core.Profile, error) {
	if userID == "" {
		return core.Profile{}, core.ErrEmptyUser
	}
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return core.Profile{UserID: userID, Timezone: "UTC"}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	return p, nil
}

func (s *DrinkService) UpdateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile updated",
		"user_id", p.UserID,
		"timezone", p.Timezone)
	return p, nil
}

// today resolves the user's local calendar day at the current instant.
func (s *DrinkService) today(ctx context.Context, userID string) (core.CalendarDay, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return core.CalendarDay{}, err
	}
	day, err := core.TodayIn(s.now(), p.Timezone)
	if err != nil {
		// A stored timezone that no longer resolves falls back to UTC.
		slog.WarnContext(ctx, "Invalid profile timezone, using UTC",
			"user_id", userID,
			"timezone", p.Timezone,
			"error", err)
		return core.DayOf(s.now().UTC()), nil
	}
	return day, nil
}

func (s *DrinkService) invalidateStreaks(userID string, today core.CalendarDay) {
	if s.streaks != nil {
		s.streaks.Delete(streakCacheKey(userID, today))
	}
}

func streakCacheKey(userID string, today core.CalendarDay) string {
	return "streak:" + userID + ":" + today.String()
}
