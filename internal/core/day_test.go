package core

import (
	"encoding/json"
	"testing"
	"time"
)

func day(s string) CalendarDay {
	d, err := ParseCalendarDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseCalendarDay(t *testing.T) {
	cases := []struct {
		in   string
		want CalendarDay
		ok   bool
	}{
		{"2024-01-03", CalendarDay{2024, time.January, 3}, true},
		{" 2024-02-29 ", CalendarDay{2024, time.February, 29}, true},
		{"2023-02-29", CalendarDay{}, false},
		{"2024-13-01", CalendarDay{}, false},
		{"03/01/2024", CalendarDay{}, false},
		{"", CalendarDay{}, false},
	}
	for _, tc := range cases {
		got, err := ParseCalendarDay(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestCalendarDayAdjacency(t *testing.T) {
	tests := []struct {
		name string
		from string
		next string
	}{
		{"same month", "2024-01-03", "2024-01-04"},
		{"month rollover", "2024-01-31", "2024-02-01"},
		{"leap day", "2024-02-28", "2024-02-29"},
		{"after leap day", "2024-02-29", "2024-03-01"},
		{"non leap february", "2023-02-28", "2023-03-01"},
		{"year rollover", "2023-12-31", "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, next := day(tt.from), day(tt.next)
			if got := from.Next(); got != next {
				t.Errorf("Next(%s) = %s, want %s", from, got, next)
			}
			if got := next.Prev(); got != from {
				t.Errorf("Prev(%s) = %s, want %s", next, got, from)
			}
			if !next.IsDayAfter(from) {
				t.Errorf("%s should be the day after %s", next, from)
			}
			if from.IsDayAfter(next) {
				t.Errorf("%s should not be the day after %s", from, next)
			}
		})
	}
}

func TestCalendarDayCompare(t *testing.T) {
	a, b := day("2023-12-31"), day("2024-01-01")
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Fatalf("unexpected ordering between %s and %s", a, b)
	}
	if !a.Before(b) || !b.After(a) {
		t.Fatalf("Before/After disagree with Compare")
	}
	if day("2024-02-10").Compare(day("2024-10-02")) != -1 {
		t.Fatalf("month must dominate day in ordering")
	}
}

func TestCalendarDayArithmetic(t *testing.T) {
	// A fixed 24h step from local midnight skips or repeats a day across a
	// DST switch; CalendarDay arithmetic must not.
	start := day("2024-03-09")
	if got := start.AddDays(2); got != day("2024-03-11") {
		t.Fatalf("AddDays(2) = %s, want 2024-03-11", got)
	}
	if got := DaysBetween(day("2024-01-01"), day("2024-12-31")); got != 365 {
		t.Fatalf("DaysBetween = %d, want 365", got)
	}
	if got := DaysBetween(day("2024-03-01"), day("2024-02-28")); got != -2 {
		t.Fatalf("DaysBetween = %d, want -2", got)
	}
}

func TestCalendarDayValidate(t *testing.T) {
	if err := day("2024-05-05").Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []CalendarDay{
		{},
		{2024, time.February, 30},
		{2024, 13, 1},
		{2024, time.January, 0},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error for %+v", i, d)
		}
	}
}

func TestCalendarDayJSON(t *testing.T) {
	in := map[CalendarDay]int{day("2024-01-02"): 3}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"2024-01-02":3}` {
		t.Fatalf("unexpected json %s", b)
	}

	var out struct {
		Date CalendarDay `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2024-07-09"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Date != day("2024-07-09") {
		t.Fatalf("got %s", out.Date)
	}
	if err := json.Unmarshal([]byte(`{"date":"nope"}`), &out); err == nil {
		t.Fatalf("expected error for malformed day")
	}
}

func TestDayOfUsesLocation(t *testing.T) {
	instant := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	behind := time.FixedZone("UTC-5", -5*3600)
	if got := DayOf(instant.In(behind)); got != day("2024-05-31") {
		t.Fatalf("DayOf = %s, want 2024-05-31", got)
	}
	if got := DayOf(instant); got != day("2024-06-01") {
		t.Fatalf("DayOf = %s, want 2024-06-01", got)
	}
}
