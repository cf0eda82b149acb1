// Package api exposes the bridge over local HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cib/internal/bridge"
	"cib/internal/errors"
	"cib/internal/logging"
)

// Server is the HTTP front-end. It owns the listener lifecycle; there
// is no ambient singleton, the composition root starts and stops it.
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	addr    string
	service *bridge.Service

	workspaceRoot string
	logger        *logging.Logger
}

// NewServer creates an HTTP server bound to addr
func NewServer(addr, workspaceRoot string, service *bridge.Service, logger *logging.Logger) *Server {
	s := &Server{
		addr:          addr,
		service:       service,
		workspaceRoot: workspaceRoot,
		logger:        logger,
		router:        http.NewServeMux(),
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes wires the API routes
func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /api/health", s.handleHealth)
	s.router.HandleFunc("POST /api/findReferences", s.handleFindReferences)
	s.router.HandleFunc("POST /api/textDocument/references", s.handleDocumentReferences)
}

// Start blocks serving requests until Shutdown. A port already in use
// is fatal; there is no retry or port search.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.addr,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.New(errors.TransportFailed,
			fmt.Sprintf("cannot listen on %s", s.addr), err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in reverse order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CompressionMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
