package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "drinktracker/internal/log"
	"drinktracker/internal/middleware/ratelimit"
	"drinktracker/internal/middleware/security"
	"drinktracker/internal/middleware/trace"
	"drinktracker/internal/ports"
	"drinktracker/internal/services"
)

const readinessTimeout = 2 * time.Second

// ServerConfig holds the HTTP settings. Logger and Now default to the slog
// default and time.Now.
type ServerConfig struct {
	Addr               string
	CronSecret         string
	RateLimitPerMinute int
	Logger             *applog.Logger
	Now                services.Clock
}

type Server struct {
	http.Server
	drinks      *services.DrinkService
	rollup      *services.MonthlyRollupProcessor
	store       ports.Store
	cronSecret  string
	now         services.Clock
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	shutdownOnce sync.Once
}

// userHandler is a handler that runs with a resolved caller id.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// NewServer configures routes and middleware, returning a ready-to-run
// server. rollup may be nil, which disables the cron endpoint.
func NewServer(cfg ServerConfig, drinks *services.DrinkService, rollup *services.MonthlyRollupProcessor, store ports.Store) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background()).WithComponent(applog.ComponentHTTP)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		drinks:     drinks,
		rollup:     rollup,
		store:      store,
		cronSecret: cfg.CronSecret,
		now:        now,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		detector: security.NewDetector(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/drinks", s.withUser(s.handleRecordDrink))
	mux.HandleFunc("POST /api/drinks/confirm-zero", s.withUser(s.handleConfirmZero))
	mux.HandleFunc("GET /api/drinks/today", s.withUser(s.handleToday))
	mux.HandleFunc("GET /api/drinks/date", s.withUser(s.handleDate))
	mux.HandleFunc("GET /api/drinks/month", s.withUser(s.handleMonth))
	mux.HandleFunc("GET /api/drinks/streak", s.withUser(s.handleStreak))
	mux.HandleFunc("GET /api/summary", s.withUser(s.handleSummaries))
	mux.HandleFunc("GET /api/user/profile", s.withUser(s.handleGetProfile))
	mux.HandleFunc("PUT /api/user/profile", s.withUser(s.handlePutProfile))
	mux.HandleFunc("GET /api/cron/monthly", s.handleMonthlyCron)

	var handler http.Handler = mux
	handler = s.limitMutating(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withUser requires the X-User-ID header and tags the request logger with
// the caller.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			UnauthorizedError(err.Error()).Write(w)
			return
		}
		logger := applog.FromContext(r.Context()).With(applog.FieldUserID, userID)
		next(w, r.WithContext(applog.NewContext(r.Context(), logger)), userID)
	}
}

// limitMutating applies per-IP rate limiting to POST and PUT requests.
func (s *Server) limitMutating(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and the limiter sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
