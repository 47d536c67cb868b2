package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/config"
	"github.com/victor-nwoseh/finance-tracker/internal/http/handlers"
	"github.com/victor-nwoseh/finance-tracker/internal/middleware"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner         *http.Server
	bills         *service.RecurringBillService
	sweepInterval time.Duration
	log           logrus.FieldLogger
}

// New wires services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log logrus.FieldLogger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	protect := func(next http.Handler) http.Handler {
		return middleware.RequireAuth(tokens, log, next)
	}

	users := service.NewUserService(store, tokens)
	transactions := service.NewTransactionService(store, log)
	budgets := service.NewBudgetService(store)
	pots := service.NewPotService(store)
	bills := service.NewRecurringBillService(store, log)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(users, log).Register(mux, protect)
	handlers.NewTransactionHandler(transactions, log).Register(mux, protect)
	handlers.NewBudgetHandler(budgets, log).Register(mux, protect)
	handlers.NewPotHandler(pots, log).Register(mux, protect)
	handlers.NewRecurringBillHandler(bills, log).Register(mux, protect)

	handler := middleware.Recover(log, !cfg.IsProduction(),
		middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, mux)))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, bills: bills, sweepInterval: cfg.BillSweepInterval, log: log}
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// StartBackground launches the overdue-bill sweeper until ctx is done.
// A zero interval leaves it disabled.
func (s *Server) StartBackground(ctx context.Context) {
	if s.sweepInterval <= 0 {
		s.log.Info("bill sweeper disabled")
		return
	}
	go s.bills.RunSweeper(ctx, s.sweepInterval)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
