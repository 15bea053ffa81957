package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"drinktracker/internal/core"
)

// fakeSheet serves the subset of the Sheets values API the exporter uses.
type fakeSheet struct {
	mu      sync.Mutex
	rows    [][]any
	updates []string
	appends int
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		keys := make([][]any, len(f.rows))
		for i, row := range f.rows {
			keys[i] = row[:min(3, len(row))]
		}
		json.NewEncoder(w).Encode(map[string]any{"range": "Summaries!A1:C", "values": keys})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		vr := decodeValues(r.Body)
		f.rows = append(f.rows, vr...)
		f.appends++
		n := len(f.rows)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Summaries!A" + strconv.Itoa(n) + ":G" + strconv.Itoa(n)},
		})

	case r.Method == http.MethodPut:
		rng := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		row, _ := rowFromRange(rng)
		vr := decodeValues(r.Body)
		for len(f.rows) < row {
			f.rows = append(f.rows, []any{})
		}
		f.rows[row-1] = vr[0]
		f.updates = append(f.updates, rng)
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})

	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func decodeValues(body io.Reader) [][]any {
	var vr struct {
		Values [][]any `json:"values"`
	}
	_ = json.NewDecoder(body).Decode(&vr)
	return vr.Values
}

func newTestClient(t *testing.T, sheet *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(sheet)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, Config{}); err == nil {
		t.Error("missing spreadsheet id should fail")
	}
	if _, err := NewClient(ctx, Config{SpreadsheetID: "x"}); err == nil {
		t.Error("missing credentials should fail")
	}
}

func TestExportSummary_AppendsThenUpdates(t *testing.T) {
	ctx := context.Background()
	sheet := &fakeSheet{}
	c := newTestClient(t, sheet)

	s := core.MonthlySummary{
		UserID:        "u1",
		Year:          2024,
		Month:         2,
		TotalDrinks:   4,
		DaysTracked:   2,
		AveragePerDay: 2,
		ComputedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	ref, err := c.ExportSummary(ctx, s)
	if err != nil {
		t.Fatalf("ExportSummary: %v", err)
	}
	if ref != "Summaries!A2:G2" {
		t.Errorf("first export ref = %q, want Summaries!A2:G2", ref)
	}
	if len(sheet.rows) != 2 || sheet.rows[0][0] != "User" {
		t.Fatalf("expected header plus one row, got %v", sheet.rows)
	}

	other := s
	other.UserID = "u2"
	if ref, err = c.ExportSummary(ctx, other); err != nil || ref != "Summaries!A3:G3" {
		t.Fatalf("second user ref = %q, err %v", ref, err)
	}

	s.TotalDrinks = 5
	ref, err = c.ExportSummary(ctx, s)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if ref != "Summaries!A2:G2" {
		t.Errorf("re-export ref = %q, want the original row", ref)
	}
	if sheet.appends != 2 {
		t.Errorf("appends = %d, want 2", sheet.appends)
	}
	if len(sheet.rows) != 3 {
		t.Errorf("rows = %d, want 3", len(sheet.rows))
	}
	if got := sheet.rows[1][3]; got != float64(5) {
		t.Errorf("total drinks cell = %v, want 5", got)
	}
}

func TestExportSummary_RejectsEmptyUser(t *testing.T) {
	c := newTestClient(t, &fakeSheet{})
	if _, err := c.ExportSummary(context.Background(), core.MonthlySummary{Year: 2024, Month: 1}); err == nil {
		t.Error("expected an error for an empty user")
	}
}
