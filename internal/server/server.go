package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marcogenualdo/classboard/internal/auth"
	"github.com/marcogenualdo/classboard/internal/classroom"
	"github.com/marcogenualdo/classboard/internal/config"
	"github.com/marcogenualdo/classboard/internal/dashboard"
	"github.com/marcogenualdo/classboard/internal/session"
	"github.com/marcogenualdo/classboard/internal/statestore"
	"github.com/marcogenualdo/classboard/internal/view"
)

// Deps are the components the server routes requests to.
type Deps struct {
	Store    statestore.Store
	OAuth    *auth.OAuth
	Codec    *session.Codec
	Engine   *dashboard.Engine
	Clients  *classroom.Factory
	Renderer *view.Renderer
}

type Server struct {
	cfg        config.Config
	deps       Deps
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.OAuth == nil || deps.Codec == nil || deps.Engine == nil || deps.Clients == nil || deps.Renderer == nil {
		return nil, fmt.Errorf("server dependencies are incomplete")
	}

	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.Classroom.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.deps.Store.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"base_url", s.cfg.Server.BaseURL,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.deps.Store.Close()
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		return s.Shutdown()
	}
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			return err
		}
	}

	if err := s.deps.Store.Close(); err != nil {
		s.logger.Error("error closing credential store", "error", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
