// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/solatis/adjrules/internal/core/api"
	"github.com/solatis/adjrules/internal/core/auth"
	"github.com/solatis/adjrules/internal/core/config"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServer manages HTTP server lifecycle.
type HTTPServer struct {
	server   *http.Server
	listener net.Listener
	config   config.ServerConfig
	logger   *slog.Logger
}

// NewRouter wires middleware and routes. API routes sit behind the
// authenticator; /health and /metrics do not.
func NewRouter(cfg config.ServerConfig, service *api.Service, authenticator *auth.Authenticator, reg *prometheus.Registry) (http.Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	metrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.middleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.HeaderAPIKey},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)
		r.Get("/columns", service.HandleColumns)
		r.Post("/extract", service.HandleExtract)
		r.Post("/update-payload", service.HandleUpdatePayload)
		r.Post("/export", service.HandleExport)
		r.Post("/export/archive", service.HandleExportArchive)
	})

	return r, nil
}

// NewHTTPServer builds the service with its own metrics registry.
func NewHTTPServer(cfg config.ServerConfig, authenticator *auth.Authenticator, logger *slog.Logger) (*HTTPServer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service, err := api.NewService(logger, cfg.MaxBodyBytes, reg)
	if err != nil {
		return nil, err
	}
	handler, err := NewRouter(cfg, service, authenticator, reg)
	if err != nil {
		return nil, err
	}

	return &HTTPServer{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the listener and serves until Shutdown is called.
// Returns nil after a graceful shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.listener = listener

	s.logger.Info("http server listening", "addr", listener.Addr().String())
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, forcing it closed after 30 seconds.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed, forced stop: %w", err)
	}
	return nil
}
