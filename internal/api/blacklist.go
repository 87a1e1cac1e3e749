package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
)

type addRequest struct {
	Username string `json:"username"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

func (s *Server) listBlacklist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Blacklist == nil {
		writeError(w, http.StatusServiceUnavailable, "blacklist not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.deps.Blacklist.List(),
		"stats":   s.deps.Blacklist.Stats(),
	})
}

func (s *Server) addBlacklist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Blacklist == nil {
		writeError(w, http.StatusServiceUnavailable, "blacklist not configured")
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	cat, err := blacklist.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = "Added via API"
	}

	added, err := s.deps.Blacklist.Add(req.Username, cat, req.Reason)
	if err != nil {
		if errors.Is(err, blacklist.ErrInvalidCategory) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.deps.Logger.Error("blacklist add failed", "user", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "could not persist blacklist")
		return
	}

	entry, _ := s.deps.Blacklist.Get(req.Username)
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"added": added, "entry": entry})
}

func (s *Server) removeBlacklist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Blacklist == nil {
		writeError(w, http.StatusServiceUnavailable, "blacklist not configured")
		return
	}

	username := chi.URLParam(r, "username")
	removed, err := s.deps.Blacklist.Remove(username)
	if err != nil {
		s.deps.Logger.Error("blacklist remove failed", "user", username, "error", err)
		writeError(w, http.StatusInternalServerError, "could not persist blacklist")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "user not blacklisted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
