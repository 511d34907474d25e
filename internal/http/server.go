// Package http exposes the ledger and the dashboard as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pfm/internal/log"
	"pfm/internal/services"
	"pfm/internal/store"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	ledger    *services.LedgerService
	dashboard *services.DashboardService
	store     store.TransactionStore
	limiter   *rateLimiter
	logger    *log.Logger
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, ledger *services.LedgerService, dashboard *services.DashboardService, st store.TransactionStore) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{
		ledger:    ledger,
		dashboard: dashboard,
		store:     st,
		limiter:   newRateLimiter(opts.RateLimitPerMinute),
		logger:    logger.WithComponent(log.ComponentHTTP),
		started:   time.Now(),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger, extractClientIP))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export.csv", s.handleExport)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Post("/transactions/delete", s.handleBatchDelete)
		r.Put("/transactions/{id}", s.handleReplaceTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Post("/fixed-expenses/load", s.handleLoadFixed)
	})
	return r
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		err = s.Server.Shutdown(ctx)
	})
	return err
}
