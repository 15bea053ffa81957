package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"drinktracker/internal/core"
	applog "drinktracker/internal/log"
	"drinktracker/internal/services"
)

const maxSummaryLimit = 120

type summaryJSON struct {
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	TotalDrinks   int       `json:"total_drinks"`
	AveragePerDay float64   `json:"average_per_day"`
	DaysTracked   int       `json:"days_tracked"`
	ComputedAt    time.Time `json:"computed_at"`
}

type profileJSON struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// handleSummaries: GET /api/summary[?limit=]
func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request, userID string) {
	limit := parseLimitQuery(r, services.DefaultSummaryLimit, maxSummaryLimit)
	summaries, err := s.drinks.Summaries(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	out := make([]summaryJSON, 0, len(summaries))
	for _, m := range summaries {
		out = append(out, summaryJSON{
			Year:          m.Year,
			Month:         m.Month,
			TotalDrinks:   m.TotalDrinks,
			AveragePerDay: m.AveragePerDay,
			DaysTracked:   m.DaysTracked,
			ComputedAt:    m.ComputedAt,
		})
	}
	NewJSONResponse().Body(struct {
		Summaries []summaryJSON `json:"summaries"`
	}{out}).Write(w)
}

// handleGetProfile: GET /api/user/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := s.drinks.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpProfile, err)
		return
	}
	NewJSONResponse().Body(profileJSON(p)).Write(w)
}

// handlePutProfile: PUT /api/user/profile {"name", "timezone"}
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpProfile, err)
		return
	}

	p, err := s.drinks.UpdateProfile(r.Context(), core.Profile{
		UserID:   userID,
		Name:     sanitizeInput(req.Name),
		Timezone: strings.TrimSpace(req.Timezone),
	})
	if err != nil {
		writeError(w, r, applog.OpProfile, err)
		return
	}
	NewJSONResponse().Body(profileJSON(p)).Write(w)
}

// handleMonthlyCron: GET /api/cron/monthly with a bearer CRON_SECRET. Always
// recomputes the previous month.
func (s *Server) handleMonthlyCron(w http.ResponseWriter, r *http.Request) {
	if !s.cronAuthorized(r) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Unauthorized cron request",
			applog.FieldErrorType, applog.ErrorTypeAuth)
		UnauthorizedError("unauthorized").Write(w)
		return
	}
	if s.rollup == nil {
		InternalServerError("rollup not configured").Write(w)
		return
	}

	report, err := s.rollup.ProcessPreviousMonth(r.Context(), s.now(), true)
	if err != nil {
		writeError(w, r, applog.OpRollup, err)
		return
	}

	NewJSONResponse().Body(struct {
		Message   string `json:"message"`
		Year      int    `json:"year"`
		Month     int    `json:"month"`
		Processed int    `json:"processed"`
		Skipped   int    `json:"skipped"`
		Failed    int    `json:"failed"`
	}{
		Message:   report.Message(),
		Year:      report.YearMonth.Year,
		Month:     int(report.YearMonth.Month),
		Processed: report.Processed,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
	}).Write(w)
}

// cronAuthorized requires "Bearer <secret>". An unset secret disables the
// endpoint.
func (s *Server) cronAuthorized(r *http.Request) bool {
	if s.cronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1
}
