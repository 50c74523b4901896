package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/monorepo-trigger/internal/dispatcher"
	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/pubsub"
	"github.com/monorepo-trigger/internal/store"
)

const maxEventBytes = 1 << 20

// Server serves /health, /dispatch and /last-commit. Depends only on the
// Store interface and the dispatch job channel.
type Server struct {
	store store.Store
	jobs  chan<- pubsub.DispatchJob
	http  *http.Server
}

// NewServer returns an HTTP server that submits push notifications to jobs.
func NewServer(addr string, s store.Store, jobs chan<- pubsub.DispatchJob) *Server {
	mux := http.NewServeMux()
	srv := &Server{store: s, jobs: jobs}
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/dispatch", srv.handleDispatch)
	mux.HandleFunc("/last-commit", srv.handleLastCommit)
	srv.http = &http.Server{Addr: addr, Handler: mux}
	return srv
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		slog.Debug("health check method not allowed", "method", r.Method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDispatch runs one invocation for the posted notification and waits
// for it. A 5xx tells the sender to redeliver; the last commit was not
// recorded in that case.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		slog.Debug("dispatch method not allowed", "method", r.Method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	trig, err := event.Parse(body)
	if err != nil {
		slog.Warn("dispatch: malformed event", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := pubsub.Submit(r.Context(), s.jobs, trig, "http")
	switch {
	case errors.Is(err, pubsub.ErrQueueFull):
		slog.Warn("dispatch: queue full", "repo", trig.Repository, "branch", trig.Branch)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case err != nil:
		slog.Error("dispatch failed", "repo", trig.Repository, "branch", trig.Branch, "commit", trig.Commit, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		slog.Debug("dispatch served", "repo", res.Repository, "started", res.Started, "failed", res.Failed)
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleLastCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	repo, branch := r.URL.Query().Get("repository"), r.URL.Query().Get("branch")
	if repo == "" || branch == "" {
		http.Error(w, "repository and branch are required", http.StatusBadRequest)
		return
	}
	name := dispatcher.ParameterName(repo, branch)
	v, err := s.store.GetParameter(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"name": name, "error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("last commit lookup", "name", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": v})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
