// Package api exposes the validation pipeline over HTTP as a JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Anya2605/HealthVerify-AI/internal/store"
	"github.com/Anya2605/HealthVerify-AI/internal/validator"
)

// Server bundles the handlers with their dependencies.
type Server struct {
	store store.Store
	orch  *validator.Orchestrator
	jobs  *JobRunner
}

// New creates a Server. The JobRunner owns background batch processing.
func New(st store.Store, orch *validator.Orchestrator) *Server {
	return &Server{
		store: st,
		orch:  orch,
		jobs:  NewJobRunner(st, orch),
	}
}

// Jobs exposes the runner so callers can drain it on shutdown.
func (s *Server) Jobs() *JobRunner {
	return s.jobs
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", s.handleListProviders)
		r.Post("/providers", s.handlePutProvider)
		r.Get("/providers/{providerID}", s.handleGetProvider)
		r.Get("/providers/{providerID}/result", s.handleLatestResult)
		r.Post("/validate/{providerID}", s.handleValidate)

		r.Post("/upload", s.handleUpload)
		r.Get("/jobs/{jobID}", s.handleGetJob)

		r.Get("/results", s.handleListResults)
		r.Get("/flags", s.handleListFlags)
		r.Post("/flags/{flagID}/resolve", s.handleResolveFlag)

		r.Get("/summary", s.handleSummary)
		r.Get("/report", s.handleReport)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
