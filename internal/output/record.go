// Package output owns the persisted shape of a batch result and writes
// partitioned JSON snapshots to disk.
package output

import (
	"time"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Partition string

const (
	PartitionLead   Partition = "lead"
	PartitionNoLead Partition = "no_lead"
	PartitionErrors Partition = "errors"
)

// Partitions lists every partition in file-writing order.
var Partitions = []Partition{PartitionLead, PartitionNoLead, PartitionErrors}

// Record is one candidate's outcome as persisted.
type Record struct {
	Index     int                    `json:"index"`
	Status    Status                 `json:"status"`
	Partition Partition              `json:"partition"`
	User      string                 `json:"user"`
	Message   string                 `json:"message"`
	Original  transcript.ChatMessage `json:"original_message"`

	IsLead     bool                  `json:"is_lead"`
	LeadScore  float32               `json:"lead_score"`
	RAGInsight classifier.RAGInsight `json:"rag_insight"`
	Reply      *classifier.Reply     `json:"reply"`
	StoppedAt  graph.StageID         `json:"stopped_at,omitempty"`
	State      *graph.State          `json:"state,omitempty"`

	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewRecord builds the record for a finished traversal. A non-nil err makes
// it an error record regardless of state.
func NewRecord(index int, candidate transcript.ChatMessage, state *graph.State, err error, at time.Time) Record {
	rec := Record{
		Index:       index,
		User:        candidate.Username,
		Message:     candidate.Text,
		Original:    candidate,
		ProcessedAt: at,
	}
	if err != nil {
		rec.Status = StatusError
		rec.Partition = PartitionErrors
		rec.Error = err.Error()
		if state != nil {
			rec.StoppedAt = state.StoppedAt()
		}
		return rec
	}

	if state == nil {
		state = &graph.State{Index: index, Message: candidate}
	}
	rec.Status = StatusSuccess
	rec.State = state
	rec.StoppedAt = state.StoppedAt()
	rec.RAGInsight = state.RAG
	rec.Reply = state.Reply
	if state.Lead != nil {
		rec.IsLead = state.Lead.IsLead
		rec.LeadScore = state.Lead.LeadScore
	}
	rec.Partition = PartitionNoLead
	if rec.IsLead {
		rec.Partition = PartitionLead
	}
	return rec
}

// Group splits records by partition.
func Group(records []Record) map[Partition][]Record {
	out := make(map[Partition][]Record, len(Partitions))
	for _, r := range records {
		out[r.Partition] = append(out[r.Partition], r)
	}
	return out
}
