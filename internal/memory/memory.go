package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"drinktracker/internal/core"
	"drinktracker/internal/ports"
)

type summaryKey struct {
	userID string
	ym     core.YearMonth
}

// Store is an in-process implementation of ports.Store.
type Store struct {
	mu        sync.Mutex
	entries   []core.Entry
	summaries map[summaryKey]core.MonthlySummary
	profiles  map[string]core.Profile
	runs      map[core.YearMonth]ports.RollupRun
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		summaries: make(map[summaryKey]core.MonthlySummary),
		profiles:  make(map[string]core.Profile),
		runs:      make(map[core.YearMonth]ports.RollupRun),
	}
}

// NewFromFiles seeds profiles from base/seed_profiles.txt. Each line is
// "user_id timezone [display name]"; blank lines and # comments are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, line := range readLines(filepath.Join(base, "seed_profiles.txt")) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		p := core.Profile{UserID: fields[0], Timezone: fields[1], Name: strings.Join(fields[2:], " ")}
		if p.Validate() != nil {
			continue
		}
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *Store) Ping(_ context.Context) error { return nil }

// AppendEntry stores the entry and fills in ID and CreatedAt when missing.
func (s *Store) AppendEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return e, nil
}

// AppendEntryChecked implements ports.EntryStore. The check runs under the
// store lock.
func (s *Store) AppendEntryChecked(_ context.Context, e core.Entry, check func(dayTotal int) error) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, x := range s.entries {
		if x.UserID == e.UserID && x.Day == e.Day {
			total += x.Delta
		}
	}
	if err := check(total); err != nil {
		return core.Entry{}, err
	}
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *Store) ListEntries(_ context.Context, userID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListEntriesBetween(_ context.Context, userID string, from, to core.CalendarDay) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, e := range s.entries {
		if e.UserID == userID && !e.Day.Before(from) && !e.Day.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) DayTotal(_ context.Context, userID string, day core.CalendarDay) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total, tracked := 0, false
	for _, e := range s.entries {
		if e.UserID == userID && e.Day == day {
			total += e.Delta
			tracked = true
		}
	}
	return total, tracked, nil
}

func (s *Store) UpsertMonthlySummary(_ context.Context, sum core.MonthlySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summaryKey{sum.UserID, sum.YearMonth()}] = sum
	return nil
}

func (s *Store) GetMonthlySummary(_ context.Context, userID string, ym core.YearMonth) (core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[summaryKey{userID, ym}]
	if !ok {
		return core.MonthlySummary{}, ports.ErrNotFound
	}
	return sum, nil
}

func (s *Store) ListMonthlySummaries(_ context.Context, userID string, limit int) ([]core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlySummary
	for k, sum := range s.summaries {
		if k.userID == userID {
			out = append(out, sum)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, ports.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) UsersWithEntriesBetween(_ context.Context, from, to core.CalendarDay) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, e := range s.entries {
		if e.Day.Before(from) || e.Day.After(to) {
			continue
		}
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		out = append(out, e.UserID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) HasRollupRun(_ context.Context, ym core.YearMonth) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[ym]
	return ok && run.Failed == 0, nil
}

func (s *Store) RecordRollupRun(_ context.Context, run ports.RollupRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.Month] = run
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
