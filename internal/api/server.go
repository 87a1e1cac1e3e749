// Package api exposes health, blacklist administration and single-message
// classification over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

const classifyTimeout = 90 * time.Second

// Classifier runs one message through the graph.
type Classifier interface {
	Run(ctx context.Context, index int, msg transcript.ChatMessage) (*graph.State, error)
}

// StateReporter exposes a named component's health, e.g. a circuit breaker.
type StateReporter interface {
	State() string
}

type Deps struct {
	Blacklist  *blacklist.Store
	Classifier Classifier
	Breakers   map[string]StateReporter
	Logger     *slog.Logger
}

type Server struct {
	router *chi.Mux
	deps   Deps
	http   *http.Server
}

func NewServer(port int, apiToken string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		deps:   deps,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/scout/status", s.status)
		r.Get("/blacklist", s.listBlacklist)
		r.Post("/blacklist", s.addBlacklist)
		r.Delete("/blacklist/{username}", s.removeBlacklist)
		r.Post("/classify", s.classify)
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.deps.Logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"agent":  "scout",
		"status": "ready",
	}
	if s.deps.Classifier == nil {
		body["status"] = "filter-only"
	}
	if s.deps.Blacklist != nil {
		body["blacklist"] = s.deps.Blacklist.Stats()
	}
	if len(s.deps.Breakers) > 0 {
		breakers := make(map[string]string, len(s.deps.Breakers))
		for name, b := range s.deps.Breakers {
			breakers[name] = b.State()
		}
		body["breakers"] = breakers
	}
	writeJSON(w, http.StatusOK, body)
}
