package core

import "sort"

// Reduce collapses raw entries into one net total per day. Input order does
// not matter and duplicate days are summed. A zero-delta entry still makes
// its day tracked.
func Reduce(entries []Entry) DailyTotals {
	totals := make(DailyTotals, len(entries))
	for _, e := range entries {
		totals[e.Day] += e.Delta
	}
	return totals
}

// Tracked reports whether the day has at least one entry.
func (t DailyTotals) Tracked(day CalendarDay) bool {
	_, ok := t[day]
	return ok
}

// Clamped returns the day's total floored at zero, for display and
// aggregation.
func (t DailyTotals) Clamped(day CalendarDay) int {
	return clamp(t[day])
}

// Days returns the tracked days, most recent first.
func (t DailyTotals) Days() []CalendarDay {
	days := make([]CalendarDay, 0, len(t))
	for d := range t {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// Between restricts the totals to the inclusive range [from, to].
func (t DailyTotals) Between(from, to CalendarDay) DailyTotals {
	out := make(DailyTotals)
	for d, v := range t {
		if d.Before(from) || d.After(to) {
			continue
		}
		out[d] = v
	}
	return out
}

func (t DailyTotals) InMonth(ym YearMonth) DailyTotals {
	return t.Between(ym.FirstDay(), ym.LastDay())
}

// Counts returns clamped per-day totals in ascending day order.
func (t DailyTotals) Counts() []DayCount {
	days := t.Days()
	out := make([]DayCount, len(days))
	for i, d := range days {
		out[len(days)-1-i] = DayCount{Day: d, Count: clamp(t[d])}
	}
	return out
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
