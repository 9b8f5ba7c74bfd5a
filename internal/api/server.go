// Package api serves the operational HTTP surface: liveness and metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/openwa/crawl-log-analyser/internal/metrics"
)

// Server exposes health and Prometheus endpoints while an analysis runs.
type Server struct {
	logger *zap.Logger
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger) *Server {
	return &Server{logger: logger}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", metrics.Handler())
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		s.logger.Warn("healthz write failed", zap.Error(err))
	}
}
