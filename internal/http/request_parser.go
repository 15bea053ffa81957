// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the caller identity header, JSON bodies and date query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"drinktracker/internal/core"
)

const (
	// UserIDHeader carries the caller identity set by the fronting proxy.
	UserIDHeader = "X-User-ID"

	maxBodyBytes    = 1 << 16
	maxUserIDLength = 128
)

var (
	errMissingUser = errors.New("missing " + UserIDHeader + " header")
	errBadBody     = errors.New("invalid request body")
)

// userIDFromRequest returns the sanitized caller id, or errMissingUser.
func userIDFromRequest(r *http.Request) (string, error) {
	id := sanitizeInput(r.Header.Get(UserIDHeader))
	if id == "" || len(id) > maxUserIDLength {
		return "", errMissingUser
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// parseDayQuery reads a required YYYY-MM-DD query parameter.
func parseDayQuery(r *http.Request, key string) (core.CalendarDay, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return core.CalendarDay{}, fmt.Errorf("%w: %s is required", core.ErrInvalidDay, key)
	}
	return core.ParseCalendarDay(v)
}

// parseYearMonthQuery reads the year and month query parameters. Missing
// values default to the month containing today.
func parseYearMonthQuery(r *http.Request, today core.CalendarDay) (core.YearMonth, error) {
	year, month := today.Year, int(today.Month)

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.YearMonth{}, fmt.Errorf("%w: %q", core.ErrInvalidYear, v)
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.YearMonth{}, fmt.Errorf("%w: %q", core.ErrInvalidMonth, v)
		}
		month = m
	}
	return core.NewYearMonth(year, month)
}

// parseLimitQuery reads an optional positive limit, capped at ceiling.
func parseLimitQuery(r *http.Request, def, ceiling int) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	n, err := strconv.Atoi(v)
	if v == "" || err != nil || n <= 0 {
		return def
	}
	return min(n, ceiling)
}
