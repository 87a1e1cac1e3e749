package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MikeSquared-Agency/scout/internal/prefilter"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

type classifyRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// classify runs one message through the graph, skipping the pre-filter
// rules, and returns the final state with its needs-help score.
func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	if s.deps.Classifier == nil {
		writeError(w, http.StatusServiceUnavailable, "classifier not configured")
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Username == "" {
		req.Username = transcript.UnknownUser
	}

	msg := transcript.ChatMessage{Username: req.Username, Text: req.Message}
	score := prefilter.NeedsHelpScore(msg)
	msg.NeedsHelpScore = &score

	ctx, cancel := context.WithTimeout(r.Context(), classifyTimeout)
	defer cancel()

	state, err := s.deps.Classifier.Run(ctx, 0, msg)
	if err != nil {
		s.deps.Logger.Warn("classify failed", "user", req.Username, "error", err)
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}
