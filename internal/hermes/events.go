package hermes

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/scout/internal/output"
)

const (
	SubjectLeadDetected        = "scout.lead.detected"
	SubjectBatchCompleted      = "scout.batch.completed"
	SubjectTranscriptSubmitted = "scout.transcript.submitted"
	// SubjectSlackReaction carries reactions relayed from the review channel.
	SubjectSlackReaction = "scout.slack.reaction"
)

// LeadDetected is published once per qualified lead.
type LeadDetected struct {
	RunID     string  `json:"run_id"`
	Index     int     `json:"index"`
	User      string  `json:"user"`
	Timestamp string  `json:"timestamp"`
	Message   string  `json:"message"`
	LeadScore float32 `json:"lead_score"`
	Reason    string  `json:"reason,omitempty"`
	Reply     string  `json:"reply,omitempty"`
}

// TranscriptSubmitted asks a running server to process a transcript, given
// either inline or as a path readable by the server.
type TranscriptSubmitted struct {
	Path       string `json:"path,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Source     string `json:"source,omitempty"`
}

func (e TranscriptSubmitted) Validate() error {
	if e.Path == "" && e.Transcript == "" {
		return fmt.Errorf("transcript event needs a path or inline transcript")
	}
	return nil
}

type publisher interface {
	Publish(subject string, data any) error
}

// Publisher turns batch results into events.
type Publisher struct {
	pub publisher
}

func NewPublisher(pub publisher) *Publisher {
	return &Publisher{pub: pub}
}

func (p *Publisher) Name() string { return "nats" }

// Consume publishes leads; other results produce no event.
func (p *Publisher) Consume(ctx context.Context, runID string, rec output.Record) error {
	if rec.Partition != output.PartitionLead {
		return nil
	}

	ev := LeadDetected{
		RunID:     runID,
		Index:     rec.Index,
		User:      rec.User,
		Timestamp: rec.Original.Timestamp,
		Message:   rec.Message,
		LeadScore: rec.LeadScore,
	}
	if rec.State != nil && rec.State.Lead != nil && rec.State.Lead.Reason != nil {
		ev.Reason = *rec.State.Lead.Reason
	}
	if rec.Reply != nil {
		ev.Reply = rec.Reply.Text
	}

	if err := p.pub.Publish(SubjectLeadDetected, ev); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectLeadDetected, err)
	}
	return nil
}

func (p *Publisher) BatchCompleted(ctx context.Context, sum output.Summary) error {
	if err := p.pub.Publish(SubjectBatchCompleted, sum); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectBatchCompleted, err)
	}
	return nil
}
