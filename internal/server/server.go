// Package server exposes the HTTP API: auth, statement upload, transaction
// queries, the correction feedback endpoint, dashboards and the AI coach.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartspend/smartspend/internal/advice"
	"github.com/smartspend/smartspend/internal/auth"
	"github.com/smartspend/smartspend/internal/engine"
	"github.com/smartspend/smartspend/internal/jobs"
	"github.com/smartspend/smartspend/internal/service"
)

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	storage    service.Storage
	publisher  jobs.Publisher
	jobStatus  jobs.StatusStore
	corrector  *engine.Corrector
	advisor    advice.Generator
	tokens     *auth.TokenIssuer
	logger     *slog.Logger
	maxRetries int
}

// Config holds the server's collaborators.
type Config struct {
	Storage    service.Storage
	Publisher  jobs.Publisher
	JobStatus  jobs.StatusStore
	Corrector  *engine.Corrector
	Advisor    advice.Generator
	Tokens     *auth.TokenIssuer
	Logger     *slog.Logger
	MaxRetries int
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		storage:    cfg.Storage,
		publisher:  cfg.Publisher,
		jobStatus:  cfg.JobStatus,
		corrector:  cfg.Corrector,
		advisor:    cfg.Advisor,
		tokens:     cfg.Tokens,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
	}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /auth/me", s.authenticated(s.handleMe))

	mux.Handle("POST /upload", s.authenticated(s.handleUpload))
	mux.Handle("GET /jobs/{id}", s.authenticated(s.handleJobStatus))

	mux.Handle("GET /transactions", s.authenticated(s.handleListTransactions))
	mux.Handle("GET /transactions/{id}", s.authenticated(s.handleGetTransaction))
	mux.Handle("PATCH /transactions/{id}/correct", s.authenticated(s.handleCorrect))

	mux.Handle("GET /dashboard/summary", s.authenticated(s.handleDashboard))
	mux.Handle("POST /coach/advice", s.authenticated(s.handleAdvice))

	mux.HandleFunc("GET /healthz", s.handleHealth)

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// ListenAndServe runs the HTTP server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("HTTP server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
