package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dompet/internal/log"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/period"
	"dompet/internal/services"
)

// DefaultGranularity is used for range queries when no preference is stored.
const DefaultGranularity = period.Month

// Options tunes a Server. Zero values pick defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	Now                func() time.Time
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	reports  *services.ReportService
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledgerSvc *services.LedgerService, reports *services.ReportService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limits := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		ledger:   ledgerSvc,
		reports:  reports,
		limiter:  ratelimit.NewLimiter(limits),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		now:      opts.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/reports/summary", s.handleSummary)
	mux.HandleFunc("GET /api/reports/buckets", s.handleBuckets)
	mux.HandleFunc("GET /api/reports/top-categories", s.handleTopCategories)
	mux.HandleFunc("POST /api/navigation", s.handleNavigation)

	mux.HandleFunc("GET /api/settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /api/settings/{key}", s.handleSetSetting)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.chain(mux, opts.Logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// chain wraps h, outermost first: suspicious request rejection, security
// headers, tracing, request-scoped logger, rate limiting of writes.
func (s *Server) chain(h http.Handler, logger *log.Logger) http.Handler {
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(h)
	h = log.ComponentMiddleware(log.ComponentHTTP)(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = log.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.detector.Middleware(h)
}

// Shutdown gracefully shuts down the server and the limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// defaultGranularity is the stored preference or DefaultGranularity.
func (s *Server) defaultGranularity(ctx context.Context) period.Granularity {
	return s.ledger.DefaultGranularity(ctx, DefaultGranularity)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
