package http

import (
	"net/http"
	"time"

	"drinktracker/internal/core"
	applog "drinktracker/internal/log"
	"drinktracker/internal/services"
)

type dayStatusJSON struct {
	Date    core.CalendarDay `json:"date"`
	Count   int              `json:"count"`
	Tracked bool             `json:"tracked"`
}

type entryJSON struct {
	ID        string           `json:"id"`
	Date      core.CalendarDay `json:"date"`
	Delta     int              `json:"delta"`
	CreatedAt time.Time        `json:"created_at"`
}

type dayCountJSON struct {
	Date  core.CalendarDay `json:"date"`
	Count int              `json:"count"`
}

type monthJSON struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []dayCountJSON `json:"days"`
}

type streakJSON struct {
	CurrentTrackingStreak int               `json:"current_tracking_streak"`
	LongestTrackingStreak int               `json:"longest_tracking_streak"`
	CurrentSoberStreak    int               `json:"current_sober_streak"`
	LongestSoberStreak    int               `json:"longest_sober_streak"`
	LastTrackedDate       *core.CalendarDay `json:"last_tracked_date"`
}

func toDayStatusJSON(st services.DayStatus) dayStatusJSON {
	return dayStatusJSON{Date: st.Day, Count: st.Count, Tracked: st.Tracked}
}

func toEntryJSON(e core.Entry) entryJSON {
	return entryJSON{ID: e.ID, Date: e.Day, Delta: e.Delta, CreatedAt: e.CreatedAt}
}

// handleRecordDrink: POST /api/drinks {"count": 1|-1}
func (s *Server) handleRecordDrink(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Count int `json:"count"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpRecord, err)
		return
	}

	entry, err := s.drinks.RecordDrink(r.Context(), userID, req.Count)
	if err != nil {
		writeError(w, r, applog.OpRecord, err)
		return
	}

	today, err := s.drinks.DayTotal(r.Context(), userID, entry.Day)
	if err != nil {
		writeError(w, r, applog.OpRecord, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Drink recorded",
		applog.NewFields().
			WithOperation(applog.OpRecord).
			WithEntry(entry.Day.String(), entry.Delta).
			ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(struct {
			Entry entryJSON     `json:"entry"`
			Today dayStatusJSON `json:"today"`
		}{toEntryJSON(entry), toDayStatusJSON(today)}).
		Write(w)
}

// handleConfirmZero: POST /api/drinks/confirm-zero {"date"?: "YYYY-MM-DD"}
func (s *Server) handleConfirmZero(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Date *core.CalendarDay `json:"date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpConfirmZero, err)
		return
	}

	entry, err := s.drinks.ConfirmZero(r.Context(), userID, req.Date)
	if err != nil {
		writeError(w, r, applog.OpConfirmZero, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(struct {
			Entry entryJSON `json:"entry"`
		}{toEntryJSON(entry)}).
		Write(w)
}

// handleToday: GET /api/drinks/today
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request, userID string) {
	st, err := s.drinks.Today(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(toDayStatusJSON(st)).Write(w)
}

// handleDate: GET /api/drinks/date?date=YYYY-MM-DD
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request, userID string) {
	day, err := parseDayQuery(r, "date")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	st, err := s.drinks.DayTotal(r.Context(), userID, day)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(toDayStatusJSON(st)).Write(w)
}

// handleMonth: GET /api/drinks/month?year=&month=
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request, userID string) {
	today, err := s.drinks.Today(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ym, err := parseYearMonthQuery(r, today.Day)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	counts, err := s.drinks.Month(r.Context(), userID, ym)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	resp := monthJSON{Year: ym.Year, Month: int(ym.Month), Days: make([]dayCountJSON, 0, len(counts))}
	for _, c := range counts {
		resp.Days = append(resp.Days, dayCountJSON{Date: c.Day, Count: c.Count})
	}
	NewJSONResponse().Body(resp).Write(w)
}

// handleStreak: GET /api/drinks/streak
func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request, userID string) {
	res, err := s.drinks.Streaks(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpStreak, err)
		return
	}
	NewJSONResponse().Body(streakJSON{
		CurrentTrackingStreak: res.CurrentTrackingStreak,
		LongestTrackingStreak: res.LongestTrackingStreak,
		CurrentSoberStreak:    res.CurrentSoberStreak,
		LongestSoberStreak:    res.LongestSoberStreak,
		LastTrackedDate:       res.LastTrackedDay,
	}).Write(w)
}
