// Package debughttp serves the optional /healthz and /metrics side
// surface (SPEC_FULL.md §4.10), grounded on the teacher's
// cmd/api/main.go router/HTTP-server/graceful-shutdown shape
// (gorilla/mux router, *http.Server with explicit timeouts,
// context-bounded Shutdown), narrowed to this system's two endpoints.
package debughttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the debug HTTP surface. A zero-value (or empty ListenAddr
// in the config that built it) means disabled — the host simply never
// calls Start.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New builds a debug server bound to addr, exposing /healthz (always
// 200 once the process is up) and /metrics (the gatherer's Prometheus
// exposition). isRunning is polled for /healthz's body so an operator
// can tell the sync engine apart from "process is alive" at a glance.
func New(addr string, gatherer prometheus.Gatherer, isRunning func() bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		running := isRunning != nil && isRunning()
		status := "ok"
		if !running {
			status = "not_running"
		}
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the HTTP server in a background goroutine. Listen errors
// other than a deliberate Stop are logged, not returned, matching the
// teacher's fire-and-forget debug-surface style.
func (s *Server) Start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("debughttp: server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down within ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
