package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/output"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

func leadRecord() output.Record {
	reason := "Paying client blocked in production"
	insight := "Add the custom domain to the allowed origins."
	st := &graph.State{
		Intent: classifier.Ok(classifier.IntentDebugging),
		Domain: classifier.Ok(classifier.DomainDeployment),
		Lead:   &classifier.LeadJudgment{IsLead: true, LeadScore: 0.85, Reason: &reason, Insight: &insight},
		Reply:  &classifier.Reply{Text: "Ran into this after a domain switch too.", Tone: classifier.TonePeer, CTAType: classifier.CTADMInvite},
	}
	cand := transcript.ChatMessage{Username: "carol", Timestamp: "Yesterday at 4:02 PM", Text: "API calls failing after deploying to custom domain\nneed help ASAP"}
	return output.NewRecord(3, cand, st, nil, time.Now())
}

func TestFormatLeadMessage(t *testing.T) {
	msg := formatLeadMessage(leadRecord())

	checks := []string{
		"Lead from carol",
		"Yesterday at 4:02 PM",
		"score 0.85",
		"*Intent:* debugging",
		"*Domain:* deployment",
		"Paying client blocked",
		"allowed origins",
		"> API calls failing after deploying to custom domain",
		"> need help ASAP",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("expected message to contain %q", check)
		}
	}
}

func TestPostLead_Success(t *testing.T) {
	var mu sync.Mutex
	var payloads []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("expected Bearer xoxb-test, got %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		json.Unmarshal(body, &payload)
		mu.Lock()
		payloads = append(payloads, payload)
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"ts": "1234567890.123456",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	ts, err := p.PostLead(context.Background(), leadRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != "1234567890.123456" {
		t.Errorf("expected ts 1234567890.123456, got %q", ts)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected summary and threaded draft, got %d posts", len(payloads))
	}
	if payloads[0]["channel"] != "C123" {
		t.Errorf("expected channel C123, got %v", payloads[0]["channel"])
	}
	if payloads[1]["thread_ts"] != "1234567890.123456" {
		t.Errorf("expected draft threaded under summary, got %v", payloads[1]["thread_ts"])
	}
	if user, ok := p.Author(ts); !ok || user != "carol" {
		t.Errorf("expected author carol, got %q (%v)", user, ok)
	}
}

func TestConsume_SkipsNonLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("non-lead must not be posted")
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	rec := output.NewRecord(0, transcript.ChatMessage{Username: "dave"}, &graph.State{}, nil, time.Now())
	if err := p.Consume(context.Background(), "run", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPostLead_SlackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": "channel_not_found",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	if err := p.Consume(context.Background(), "run", leadRecord()); err == nil {
		t.Fatal("expected error for slack error response")
	}
}
