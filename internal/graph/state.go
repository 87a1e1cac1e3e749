// Package graph runs one candidate message through the classification
// stages, routing between them on the accumulated state.
package graph

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

type StageID string

const (
	StageTechnical  StageID = "technical_gate"
	StageIntent     StageID = "intent_classify"
	StageDomain     StageID = "domain_classify"
	StageLeadJudge  StageID = "lead_judge"
	StageLeadReply  StageID = "generate_response"
	StageRAG        StageID = "process_rag"
	StageReputation StageID = "reputation_response"
	StageValidate   StageID = "validate_reply"
	StageAdjust     StageID = "adjust_prompt"
	StageEnd        StageID = "end"
)

// State is everything known about one candidate. Each field past Message
// is written by exactly one stage (Reply by either generator).
type State struct {
	Index   int                    `json:"index"`
	Message transcript.ChatMessage `json:"message"`

	Technical classifier.Label[classifier.TechnicalCategory] `json:"category"`
	Intent    classifier.Label[classifier.Intent]            `json:"intent"`
	Domain    classifier.Label[classifier.Domain]            `json:"domain"`

	Lead       *classifier.LeadJudgment `json:"lead_judgment"`
	Reply      *classifier.Reply        `json:"reply"`
	RAG        classifier.RAGInsight    `json:"rag_insight"`
	Validation *classifier.Validation   `json:"validation,omitempty"`

	RegenerationAttempts int       `json:"regeneration_attempts"`
	Path                 []StageID `json:"path"`
}

// StoppedAt is the last stage that ran.
func (s *State) StoppedAt() StageID {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// IsLead reports whether the lead judge qualified the message.
func (s *State) IsLead() bool {
	return s.Lead != nil && s.Lead.IsLead
}

// Patch is a stage's output. Nil fields are left untouched.
type Patch struct {
	Technical            *classifier.Label[classifier.TechnicalCategory]
	Intent               *classifier.Label[classifier.Intent]
	Domain               *classifier.Label[classifier.Domain]
	Lead                 *classifier.LeadJudgment
	Reply                *classifier.Reply
	RAG                  *classifier.RAGInsight
	Validation           *classifier.Validation
	RegenerationAttempts *int
}

var owners = map[string][]StageID{
	"Technical":            {StageTechnical},
	"Intent":               {StageIntent},
	"Domain":               {StageDomain},
	"Lead":                 {StageLeadJudge},
	"Reply":                {StageLeadReply, StageReputation},
	"RAG":                  {StageRAG},
	"Validation":           {StageValidate},
	"RegenerationAttempts": {StageAdjust},
}

func (p Patch) fields() []string {
	var out []string
	if p.Technical != nil {
		out = append(out, "Technical")
	}
	if p.Intent != nil {
		out = append(out, "Intent")
	}
	if p.Domain != nil {
		out = append(out, "Domain")
	}
	if p.Lead != nil {
		out = append(out, "Lead")
	}
	if p.Reply != nil {
		out = append(out, "Reply")
	}
	if p.RAG != nil {
		out = append(out, "RAG")
	}
	if p.Validation != nil {
		out = append(out, "Validation")
	}
	if p.RegenerationAttempts != nil {
		out = append(out, "RegenerationAttempts")
	}
	return out
}

// OwnershipError is returned when a stage writes a field it does not own.
type OwnershipError struct {
	Stage  StageID
	Fields []string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("stage %s may not write %s", e.Stage, strings.Join(e.Fields, ", "))
}

// apply merges p into s after checking that stage owns every field in p.
func (s *State) apply(stage StageID, p Patch) error {
	var foreign []string
	for _, f := range p.fields() {
		if !owns(stage, f) {
			foreign = append(foreign, f)
		}
	}
	if len(foreign) > 0 {
		return &OwnershipError{Stage: stage, Fields: foreign}
	}

	if p.Technical != nil {
		s.Technical = *p.Technical
	}
	if p.Intent != nil {
		s.Intent = *p.Intent
	}
	if p.Domain != nil {
		s.Domain = *p.Domain
	}
	if p.Lead != nil {
		s.Lead = p.Lead
	}
	if p.Reply != nil {
		s.Reply = p.Reply
	}
	if p.RAG != nil {
		s.RAG = *p.RAG
	}
	if p.Validation != nil {
		s.Validation = p.Validation
	}
	if p.RegenerationAttempts != nil {
		s.RegenerationAttempts = *p.RegenerationAttempts
	}
	return nil
}

func owns(stage StageID, field string) bool {
	for _, o := range owners[field] {
		if o == stage {
			return true
		}
	}
	return false
}
