// Package api exposes the agent and the precomputed reports over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/marginguard/marginguard/pkg/agent"
	"github.com/marginguard/marginguard/pkg/analysis"
	"github.com/marginguard/marginguard/pkg/config"
	"github.com/marginguard/marginguard/pkg/health"
	"github.com/marginguard/marginguard/pkg/logger"
)

// Server holds the request handlers and their dependencies.
type Server struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer
	loop     *agent.Loop
	checks   map[string]health.CheckFunc
	router   chi.Router
}

// NewServer builds the router. A nil loop is allowed: the chat endpoint
// then reports the missing model configuration instead of serving.
func NewServer(cfg *config.Config, analyzer *analysis.Analyzer, loop *agent.Loop) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		loop:     loop,
		checks: map[string]health.CheckFunc{
			"dataset": health.DatasetCheck(analyzer.Store().Counts),
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/reports", s.handleReports)
	})

	s.router = r
	return s
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// AddCheck registers an extra readiness check on the health endpoint. Call
// before serving; the check map is not guarded for concurrent writes.
func (s *Server) AddCheck(name string, fn health.CheckFunc) {
	s.checks[name] = fn
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy, results := health.Run(s.checks)
	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"counts": s.analyzer.Store().Counts(),
		"checks": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnCF("api", "Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
