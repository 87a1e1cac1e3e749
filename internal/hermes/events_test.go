package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/output"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

type published struct {
	subject string
	data    any
}

type recordingPublisher struct {
	msgs []published
	err  error
}

func (r *recordingPublisher) Publish(subject string, data any) error {
	r.msgs = append(r.msgs, published{subject, data})
	return r.err
}

func leadRecord() output.Record {
	reason := "production outage on a paid project"
	cand := transcript.ChatMessage{Username: "bob", Timestamp: "Today at 9:14 AM", Text: "API calls failing after deploying to custom domain"}
	st := &graph.State{
		Lead:  &classifier.LeadJudgment{IsLead: true, LeadScore: 0.88, Reason: &reason},
		Reply: &classifier.Reply{Text: "Had the same CORS issue.", Tone: classifier.TonePeer, CTAType: classifier.CTADMInvite},
	}
	return output.NewRecord(4, cand, st, nil, time.Now())
}

func TestPublisher_Lead(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewPublisher(rec)

	if err := p.Consume(context.Background(), "run-1", leadRecord()); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.msgs))
	}
	if rec.msgs[0].subject != SubjectLeadDetected {
		t.Errorf("expected subject %s, got %s", SubjectLeadDetected, rec.msgs[0].subject)
	}
	ev := rec.msgs[0].data.(LeadDetected)
	if ev.User != "bob" || ev.Index != 4 || ev.RunID != "run-1" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Reason == "" || ev.Reply != "Had the same CORS issue." {
		t.Errorf("expected reason and reply, got %+v", ev)
	}
}

func TestPublisher_SkipsNonLeads(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewPublisher(rec)

	nonLead := output.NewRecord(1, transcript.ChatMessage{Username: "x"}, &graph.State{}, nil, time.Now())
	failed := output.NewRecord(2, transcript.ChatMessage{Username: "y"}, nil, errors.New("boom"), time.Now())
	for _, r := range []output.Record{nonLead, failed} {
		if err := p.Consume(context.Background(), "run-1", r); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	}
	if len(rec.msgs) != 0 {
		t.Errorf("expected no events, got %d", len(rec.msgs))
	}
}

func TestPublisher_Errors(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("nats: connection closed")}
	p := NewPublisher(rec)

	if err := p.Consume(context.Background(), "run-1", leadRecord()); err == nil {
		t.Fatal("expected publish error")
	}
	if err := p.BatchCompleted(context.Background(), output.Summary{RunID: "run-1"}); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestTranscriptSubmittedParsing(t *testing.T) {
	raw := `{"path": "/data/discord-2026-03-14.txt", "source": "exporter"}`

	var ev TranscriptSubmitted
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("failed to parse TranscriptSubmitted: %v", err)
	}
	if ev.Path != "/data/discord-2026-03-14.txt" {
		t.Errorf("expected path, got %q", ev.Path)
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}
	if err := (TranscriptSubmitted{}).Validate(); err == nil {
		t.Error("expected empty event to be invalid")
	}
}
