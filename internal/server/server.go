// Package server exposes the engine over HTTP. Handlers are thin JSON
// adapters around the api façade; all workflow and scoring decisions stay in
// the engine packages.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"pressline/internal/api"
	"pressline/internal/config"
	"pressline/internal/logging"
)

// Server hosts the JSON API.
type Server struct {
	bind   string
	token  string
	logger *slog.Logger
	engine *api.Service

	listener net.Listener
	server   *http.Server
}

// New builds the HTTP server. Returns nil when no bind address is
// configured, which disables the API entirely.
func New(cfg *config.Config, engine *api.Service, logger *slog.Logger) *Server {
	if cfg == nil || engine == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil
	}

	srv := &Server{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Server.APIToken),
		logger: logging.NewComponentLogger(logger, "http"),
		engine: engine,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.auth(srv.handleStatus))
	mux.HandleFunc("/api/orders", srv.auth(srv.handleOrders))
	mux.HandleFunc("/api/orders/", srv.auth(srv.handleOrder))
	mux.HandleFunc("/api/lines", srv.auth(srv.handleLines))
	mux.HandleFunc("/api/lines/", srv.auth(srv.handleLine))
	mux.HandleFunc("/api/baseline", srv.auth(srv.handleBaseline))
	mux.HandleFunc("/api/baseline/recompute", srv.auth(srv.handleRecompute))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// auth wraps a handler with optional bearer-token validation. An empty
// configured token disables authentication.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
