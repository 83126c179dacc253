package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/marmos91/dittofs/internal/logger"
	"github.com/marmos91/dittofs/pkg/config"
	"github.com/marmos91/dittofs/pkg/svfs"
)

// Server is the HTTP API server fronting one SVFS instance, following
// the teacher's pkg/controlplane/api.Server shape: constructed stopped,
// started with Start(ctx), stopped gracefully on context cancellation.
type Server struct {
	server       *http.Server
	config       config.ServerConfig
	shutdownOnce sync.Once
}

// NewServer builds a Server that routes to system per cfg.
func NewServer(cfg *config.Config, system *svfs.SVFS) *Server {
	router := NewRouter(system, cfg)

	return &Server{
		server: &http.Server{
			Addr:         cfg.Server.ListenAddr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		config: cfg.Server,
	}
}

// Start serves requests until ctx is cancelled, then shuts down
// gracefully within config.ShutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("svfsd API listening", "addr", s.config.ListenAddr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("svfsd API shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("svfsd API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("svfsd API shutdown error: %w", err)
			logger.Error("svfsd API shutdown error", logger.Err(err))
			return
		}
		logger.Info("svfsd API stopped gracefully")
	})
	return shutdownErr
}
