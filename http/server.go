package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server represents an HTTP server serving session-wrapped handlers
type Server struct {
	server http.Server
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, letting in-flight requests commit their sessions
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// NewServer creates a server on addr
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		server: http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}
