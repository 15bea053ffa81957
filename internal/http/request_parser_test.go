package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"drinktracker/internal/core"
)

func TestUserIDFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"plain", "user-1", "user-1", false},
		{"trimmed", "  user-1 ", "user-1", false},
		{"control characters stripped", "us\x00er\x1f", "user", false},
		{"missing", "", "", true},
		{"only whitespace", "   ", "", true},
		{"too long", strings.Repeat("u", maxUserIDLength+1), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(UserIDHeader, tt.header)
			got, err := userIDFromRequest(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("userID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Count int `json:"count"`
	}
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"valid", `{"count":1}`, 1, false},
		{"empty body", ``, 0, false},
		{"unknown field", `{"count":1,"x":2}`, 0, true},
		{"wrong type", `{"count":"1"}`, 0, true},
		{"trailing data", `{"count":1}{"count":2}`, 0, true},
		{"oversized", `{"count":1,"pad":"` + strings.Repeat("a", maxBodyBytes) + `"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.in))
			var b body
			err := decodeJSON(httptest.NewRecorder(), r, &b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadBody) {
				t.Errorf("error %v should wrap errBadBody", err)
			}
			if !tt.wantErr && b.Count != tt.want {
				t.Errorf("Count = %d, want %d", b.Count, tt.want)
			}
		})
	}
}

func TestParseYearMonthQuery(t *testing.T) {
	today := core.NewCalendarDay(2024, time.March, 15)
	tests := []struct {
		name    string
		query   string
		want    core.YearMonth
		wantErr error
	}{
		{"defaults to current month", "", core.YearMonth{Year: 2024, Month: time.March}, nil},
		{"explicit", "year=2023&month=12", core.YearMonth{Year: 2023, Month: time.December}, nil},
		{"month only", "month=1", core.YearMonth{Year: 2024, Month: time.January}, nil},
		{"month out of range", "month=13", core.YearMonth{}, core.ErrInvalidMonth},
		{"month not a number", "month=abc", core.YearMonth{}, core.ErrInvalidMonth},
		{"year not a number", "year=20x4", core.YearMonth{}, core.ErrInvalidYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := parseYearMonthQuery(r, today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDayQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?date=2024-02-29", nil)
	day, err := parseDayQuery(r, "date")
	if err != nil || day != core.NewCalendarDay(2024, time.February, 29) {
		t.Errorf("parseDayQuery = %v, %v", day, err)
	}

	for _, q := range []string{"", "date=2023-02-29", "date=02/03/2024"} {
		r := httptest.NewRequest(http.MethodGet, "/?"+q, nil)
		if _, err := parseDayQuery(r, "date"); !errors.Is(err, core.ErrInvalidDay) {
			t.Errorf("query %q: err = %v, want ErrInvalidDay", q, err)
		}
	}
}

func TestParseLimitQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 12},
		{"limit=3", 3},
		{"limit=0", 12},
		{"limit=-1", 12},
		{"limit=abc", 12},
		{"limit=1000", 120},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := parseLimitQuery(r, 12, 120); got != tt.want {
			t.Errorf("parseLimitQuery(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
