// Package http serves the ledger JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"rupaiya/internal/assistant"
	"rupaiya/internal/auth"
	"rupaiya/internal/core"
	"rupaiya/internal/importer"
	"rupaiya/internal/ledger"
	"rupaiya/internal/log"
)

// Asker answers chat questions about a ledger snapshot.
type Asker interface {
	Ask(ctx context.Context, snapshot core.Ledger, history []assistant.Message, question string) (string, error)
}

type Config struct {
	Addr       string
	CORSOrigin string
	// RequestsPerMinute bounds POST and DELETE requests per client IP.
	RequestsPerMinute int
}

// Deps are the services behind the API. Source and Assistant may be nil;
// their endpoints then answer 503. Auth may be nil to disable sign in.
type Deps struct {
	Ledger    *ledger.Service
	Source    importer.Source
	Assistant Asker
	Auth      *auth.Manager
	Logger    *log.Logger
}

type Server struct {
	http.Server
	cfg     Config
	deps    Deps
	logger  *log.Logger
	access  *log.StructuredLogger
	limiter *rateLimiter
	metrics *securityMetrics
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if deps.Auth == nil {
		deps.Auth = auth.New(auth.Config{}, logger.Slog())
	}
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		access:  log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		metrics: &securityMetrics{},
		now:     time.Now,
	}
	go s.limiter.startCleanup(5 * time.Minute)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/ledger", s.handleLedger)
	api.HandleFunc("POST /api/incomes", s.handleAddIncome)
	api.HandleFunc("POST /api/expenses", s.handleAddExpense)
	api.HandleFunc("POST /api/investments", s.handleAddInvestment)
	api.HandleFunc("DELETE /api/{kind}/{id}", s.handleDelete)
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("GET /api/breakdown", s.handleBreakdown)
	api.HandleFunc("GET /api/series", s.handleSeries)
	api.HandleFunc("GET /api/labels", s.handleLabels)
	api.HandleFunc("POST /api/import", s.handleImport)
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("GET /api/export", s.handleExport)
	api.HandleFunc("GET /api/security", s.handleSecurityMetrics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /auth/login", s.deps.Auth.HandleLogin)
	mux.HandleFunc("GET /auth/callback", s.deps.Auth.HandleCallback)
	mux.HandleFunc("GET /auth/me", s.deps.Auth.HandleMe)
	mux.HandleFunc("POST /auth/logout", s.deps.Auth.HandleLogout)
	mux.Handle("/api/", s.deps.Auth.Middleware(api))

	return chain(mux, s.withTrace, s.withSecurity, s.withCORS, s.withRateLimit)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// SecurityMetrics returns the rate limit and detection counters.
func (s *Server) SecurityMetrics() SecuritySnapshot {
	return s.metrics.snapshot()
}
