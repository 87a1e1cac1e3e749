package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
	"github.com/MikeSquared-Agency/scout/internal/hermes"
	"github.com/MikeSquared-Agency/scout/internal/slack"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// authorLookup resolves a posted review message to the lead's username.
type authorLookup interface {
	Author(ts string) (string, bool)
}

// Handlers are the NATS callbacks used by the server.
type Handlers struct {
	ctx       context.Context
	pipeline  *Pipeline
	reviews   authorLookup
	blacklist *blacklist.Store
	logger    *slog.Logger
}

// NewHandlers binds handlers to ctx so shutdown interrupts running batches.
// reviews may be nil when Slack is not configured.
func NewHandlers(ctx context.Context, pipeline *Pipeline, reviews authorLookup, bl *blacklist.Store, logger *slog.Logger) *Handlers {
	return &Handlers{ctx: ctx, pipeline: pipeline, reviews: reviews, blacklist: bl, logger: logger}
}

// HandleTranscriptSubmitted is the NATS handler for scout.transcript.submitted.
func (h *Handlers) HandleTranscriptSubmitted(subject string, data []byte) {
	var evt hermes.TranscriptSubmitted
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Error("failed to parse transcript event", "error", err)
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Error("invalid transcript event", "error", err)
		return
	}

	var msgs []transcript.ChatMessage
	if evt.Transcript != "" {
		msgs = transcript.Parse(evt.Transcript)
	} else {
		var err error
		msgs, err = transcript.ParseFile(evt.Path)
		if err != nil {
			h.logger.Error("failed to read transcript", "path", evt.Path, "error", err)
			return
		}
	}

	h.logger.Info("processing submitted transcript", "source", evt.Source, "path", evt.Path, "messages", len(msgs))
	report, res, err := h.pipeline.Run(h.ctx, msgs)
	if err != nil {
		h.logger.Error("transcript processing failed", "source", evt.Source, "error", err)
	}
	if res != nil {
		h.logger.Info("transcript processed",
			"run_id", res.RunID,
			"candidates", len(report.Candidates),
			"leads", res.Summary.Leads,
		)
	}
}

// HandleReaction applies a reviewer's Slack reaction to a posted lead. Only
// the blacklist verdict changes state; the others are logged.
func (h *Handlers) HandleReaction(subject string, data []byte) {
	evt, err := slack.ParseReactionEvent(data)
	if err != nil {
		h.logger.Error("failed to parse reaction", "error", err)
		return
	}

	verdict := slack.ParseReaction(evt.Reaction)
	if verdict == slack.VerdictUnknown || h.reviews == nil {
		return
	}

	user, ok := h.reviews.Author(evt.MessageTS)
	if !ok {
		h.logger.Debug("reaction on unknown message", "ts", evt.MessageTS)
		return
	}

	h.logger.Info("lead reviewed", "user", user, "verdict", verdict, "reviewer", evt.UserID)
	if verdict != slack.VerdictBlacklist {
		return
	}

	added, err := h.blacklist.Add(user, blacklist.CategorySpammer, "Reviewer reaction in Slack")
	if err != nil {
		h.logger.Error("failed to blacklist reviewed user", "user", user, "error", err)
		return
	}
	if added {
		h.logger.Info("user blacklisted by reviewer", "user", user, "reviewer", evt.UserID)
	}
}
