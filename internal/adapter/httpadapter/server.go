package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FailureCounter reports how many fetch failures each producer has recorded.
// *rpc.Client satisfies it.
type FailureCounter interface {
	GetFetchFailures(ctx context.Context) (map[domain.WxApp]uint16, error)
}

// Server exposes health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures optional routes.
type Option func(mux *http.ServeMux, logger *slog.Logger)

// WithFetchFailures adds GET /fetch-failures, which reports the store's
// fetch failure counts by producer name.
func WithFetchFailures(counter FailureCounter) Option {
	return func(mux *http.ServeMux, logger *slog.Logger) {
		mux.HandleFunc("GET /fetch-failures", fetchFailuresHandler(counter, logger))
	}
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	for _, opt := range opts {
		opt(mux, logger)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func fetchFailuresHandler(counter FailureCounter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := counter.GetFetchFailures(r.Context())
		if err != nil {
			logger.Warn("fetch failure query failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		byName := make(map[string]uint16, len(counts))
		for app, n := range counts {
			byName[app.String()] = n
		}
		writeJSON(w, http.StatusOK, byName)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
