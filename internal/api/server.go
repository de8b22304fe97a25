package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/xrs-network/xrsd/internal/log"
	"github.com/xrs-network/xrsd/internal/names/service"
	"github.com/xrs-network/xrsd/internal/tracing"
)

// Server wraps the Handler with an http.Server for lifecycle management.
type Server struct {
	server   *http.Server
	listener net.Listener
	port     int // actual port after binding, useful with :0
}

// ServerConfig configures the API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g. ":8545" or "localhost:0").
	Addr string
	// Service is the registry service to expose (required).
	Service *service.Service
	// Version is reported by /api/health and /api/stats.
	Version string
	// RateLimit configures per-IP admission; nil-equivalent zero values
	// use the defaults.
	RateLimit RateLimitConfig
	// DisableRateLimit turns admission control off entirely (tests).
	DisableRateLimit bool
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration
}

// NewServer creates a new API server. The listener is opened immediately so
// that Port() is valid before Start; with port 0 the OS assigns one.
func NewServer(cfg ServerConfig) (*Server, error) {
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}

	var limiter *RateLimiter
	if !cfg.DisableRateLimit {
		limiter = NewRateLimiter(cfg.RateLimit)
	}

	handler := Chain(NewHandler(cfg.Service, cfg.Version).Routes(), limiter)
	handler = tracing.Middleware(handler)

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	port := 0
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	return &Server{
		listener: listener,
		port:     port,
		server: &http.Server{
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
	}, nil
}

// Start serves requests on the listener. It blocks until the server is
// stopped or fails.
func (s *Server) Start() error {
	log.Info(log.CatHTTP, "starting API server", "addr", s.listener.Addr().String())
	return s.server.Serve(s.listener)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info(log.CatHTTP, "stopping API server")
	return s.server.Shutdown(ctx)
}

// Port returns the actual port the server is listening on.
func (s *Server) Port() int {
	return s.port
}
