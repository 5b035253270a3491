package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/app"
	"github.com/ternarybob/vestio/internal/common"
)

// Server manages the HTTP server and routes
type Server struct {
	config    *common.Config
	logger    arbor.ILogger
	authToken string
	router    *http.ServeMux
	server    *http.Server
}

// NewIngestor creates the admin API server for the control plane
func NewIngestor(application *app.Ingestor) *Server {
	s := &Server{
		config: application.Config,
		logger: application.Logger,
	}

	s.router = s.ingestorRoutes(application)
	s.server = s.build(s.withMiddleware(s.router))

	return s
}

// NewAgent creates the scrape API server for the job plane
func NewAgent(application *app.Agent) *Server {
	s := &Server{
		config:    application.Config,
		logger:    application.Logger,
		authToken: application.Config.Auth.APIAccessToken,
	}

	if s.authToken == "" {
		s.logger.Warn().Msg("API access token not configured, scrape endpoints are unauthenticated")
	}

	s.router = s.agentRoutes(application)
	s.server = s.build(s.withMiddleware(s.authMiddleware(s.router)))

	return s
}

// build creates the HTTP server with standard timeouts
func (s *Server) build(handler http.Handler) *http.Server {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
