// Package slack posts qualified leads to a review channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/scout/internal/output"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string

	mu      sync.Mutex
	authors map[string]string // message ts -> discord username
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
		authors: make(map[string]string),
	}
}

func (p *Poster) Name() string { return "slack" }

// Consume posts leads for review; other results are ignored.
func (p *Poster) Consume(ctx context.Context, runID string, rec output.Record) error {
	if rec.Partition != output.PartitionLead {
		return nil
	}
	_, err := p.PostLead(ctx, rec)
	return err
}

// PostLead posts the lead summary and threads the drafted reply under it.
// Returns the summary message timestamp, which reactions refer to.
func (p *Poster) PostLead(ctx context.Context, rec output.Record) (string, error) {
	text := formatLeadMessage(rec)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "React: :+1: real lead | :-1: false positive | :no_entry: blacklist author",
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.authors[ts] = rec.User
	p.mu.Unlock()
	p.logger.Info("posted lead to slack", "ts", ts, "user", rec.User, "index", rec.Index)

	if rec.Reply != nil && rec.Reply.Text != "" {
		if err := p.PostThread(ctx, ts, "*Draft reply:*\n"+rec.Reply.Text); err != nil {
			p.logger.Warn("failed to thread draft reply", "ts", ts, "error", err)
		}
	}
	return ts, nil
}

// Author returns the username behind a posted lead.
func (p *Poster) Author(ts string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.authors[ts]
	return u, ok
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatLeadMessage(rec output.Record) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Lead from %s* (%s) | score %.2f\n", rec.User, rec.Original.Timestamp, rec.LeadScore)
	if st := rec.State; st != nil {
		fmt.Fprintf(&sb, "*Intent:* %s | *Domain:* %s\n", st.Intent.String(), st.Domain.String())
		if st.Lead != nil && st.Lead.Reason != nil {
			fmt.Fprintf(&sb, "*Why:* %s\n", *st.Lead.Reason)
		}
		if st.Lead != nil && st.Lead.Insight != nil {
			fmt.Fprintf(&sb, "*Insight:* %s\n", *st.Lead.Insight)
		}
	}
	sb.WriteString("\n")
	for _, line := range strings.Split(rec.Message, "\n") {
		sb.WriteString("> " + line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
