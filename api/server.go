// Package api serves the MCP streamable HTTP transport together with
// plain health endpoints.
//
// Routes:
//
//	GET  /         → service status JSON
//	GET  /health   → service status JSON
//	GET  /status   → service status JSON
//	anything else  → MCP streamable HTTP handler
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery, request id, logging, CORS
//   - ratelimit.go: per-IP rate limiting
//   - response.go: JSON response helpers
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "0.0.0.0:8081"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// MCP responses stream, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second

	// Default per-IP rate limit: tokens per second and bucket size.
	DefaultRatePerSecond = 10
	DefaultRateBurst     = 20
)

// Server is the HTTP front for the MCP server.
type Server struct {
	mux     *http.ServeMux
	limiter *rateLimiter
	logger  log.Logger

	name        string
	version     string
	corsOrigins []string
	trustProxy  bool
}

// Config holds HTTP server configuration.
type Config struct {
	Name       string
	Version    string
	MCPHandler http.Handler // streamable HTTP transport handler
	Logger     log.Logger

	CORSOrigins []string // allowed origins; ["*"] allows any
	TrustProxy  bool     // trust X-Real-IP / X-Forwarded-For

	// Per-IP rate limit overrides (defaults above).
	RatePerSecond float64
	RateBurst     int
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" || cfg.Version == "" {
		return nil, fmt.Errorf("name and version are required")
	}
	if cfg.MCPHandler == nil {
		return nil, fmt.Errorf("MCP handler is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	ratePerSecond := cfg.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultRatePerSecond
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = DefaultRateBurst
	}

	s := &Server{
		mux:         http.NewServeMux(),
		limiter:     newRateLimiter(ratePerSecond, burst),
		logger:      cfg.Logger,
		name:        cfg.Name,
		version:     cfg.Version,
		corsOrigins: cfg.CORSOrigins,
		trustProxy:  cfg.TrustProxy,
	}

	// Health endpoints answer plain GETs; the MCP handler takes the rest
	// (POST for tool calls, GET with SSE accept for streams, DELETE for
	// session teardown).
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleHealth)
	s.mux.Handle("/", cfg.MCPHandler)

	return s, nil
}

// handleHealth reports service identity and liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    s.name,
		"version": s.version,
		"status":  "ok",
	}, s.logger)
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → request id → logging → CORS → rate limit → mux.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
		corsMiddleware(s.corsOrigins),
		rateLimitMiddleware(s.limiter, s.trustProxy, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
