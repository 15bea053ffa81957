// Package ratelimit throttles write traffic per client with fixed
// one-minute budgets.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	windowLength = time.Minute
	idleTTL      = 10 * time.Minute
)

type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time

	requestsPerMinute int
	cleanupInterval   time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// counter is the budget state of one key. opened marks the start of the
// current window.
type counter struct {
	opened   time.Time
	lastSeen time.Time
	used     int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter and its janitor goroutine. Call Stop to end it.
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	rl := &Limiter{
		counters:          make(map[string]*counter),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
		done:              make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow spends one request from key's budget.
func (rl *Limiter) Allow(key string) bool {
	_, ok := rl.take(key)
	return ok
}

// take returns the budget left after this request and whether it was
// admitted.
func (rl *Limiter) take(key string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c := rl.counters[key]
	if c == nil || now.Sub(c.opened) >= windowLength {
		c = &counter{opened: now}
		rl.counters[key] = c
	}
	c.lastSeen = now
	c.used++

	left := rl.requestsPerMinute - c.used
	return max(left, 0), left >= 0
}

func (rl *Limiter) janitor() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.done:
			return
		}
	}
}

// cleanupStaleEntries forgets keys idle for longer than idleTTL.
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	for key, c := range rl.counters {
		if c.lastSeen.Before(cutoff) {
			delete(rl.counters, key)
		}
	}
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.counters)
}

func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Middleware admits requests while the key returned by extractKey has budget
// left and reports the remaining budget in X-RateLimit-* headers. onLimit
// writes the rejection; nil gives a plain 429.
func (rl *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	limit := strconv.Itoa(rl.requestsPerMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			left, ok := rl.take(extractKey(r))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))

			if ok {
				next.ServeHTTP(w, r)
				return
			}
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}
