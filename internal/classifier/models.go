package classifier

import (
	"encoding/json"
	"strings"
)

// failureSuffix ends every stage failure marker.
const failureSuffix = "inference error"

type TechnicalCategory string

const (
	TechnicalProblem TechnicalCategory = "technical_problem"
	NotTechnical     TechnicalCategory = "not_technical"
)

type Intent string

const (
	IntentDebugging    Intent = "debugging"
	IntentPlanning     Intent = "planning"
	IntentMigration    Intent = "migration"
	IntentOptimization Intent = "optimization"
	IntentIntegration  Intent = "integration"
	IntentEvaluation   Intent = "evaluation"
	IntentScaling      Intent = "scaling"
	IntentOutOfScope   Intent = "out_of_scope"
)

type Domain string

const (
	DomainDatabase          Domain = "database"
	DomainAuth              Domain = "auth"
	DomainAPIIntegration    Domain = "api_integration"
	DomainDeployment        Domain = "deployment"
	DomainScaling           Domain = "scaling"
	DomainSecurity          Domain = "security"
	DomainMigration         Domain = "migration"
	DomainMCP               Domain = "mcp"
	DomainCommercialization Domain = "commercialization"
	DomainArchitecture      Domain = "architecture"
	DomainOutOfScope        Domain = "out_of_scope"
)

// Label is either a classifier value or a failure marker, never both.
// The zero Label means the stage has not run.
type Label[T ~string] struct {
	Value   T
	Failure string
}

func Ok[T ~string](v T) Label[T] {
	return Label[T]{Value: v}
}

func Failed[T ~string](marker string) Label[T] {
	return Label[T]{Failure: marker}
}

// OK reports whether the label holds a real value.
func (l Label[T]) OK() bool {
	return l.Failure == "" && l.Value != ""
}

func (l Label[T]) Failed() bool {
	return l.Failure != ""
}

// Is reports whether the label holds v.
func (l Label[T]) Is(v T) bool {
	return l.OK() && l.Value == v
}

func (l Label[T]) String() string {
	if l.Failure != "" {
		return l.Failure
	}
	return string(l.Value)
}

// MarshalJSON writes the value or the failure marker as a plain string, or
// null for a stage that never ran.
func (l Label[T]) MarshalJSON() ([]byte, error) {
	if l.Value == "" && l.Failure == "" {
		return []byte("null"), nil
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON reads what MarshalJSON wrote. Failure markers are
// recognised by their suffix.
func (l *Label[T]) UnmarshalJSON(data []byte) error {
	*l = Label[T]{}
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.HasSuffix(s, failureSuffix) {
		l.Failure = s
		return nil
	}
	l.Value = T(s)
	return nil
}

// LeadJudgment is the lead judge's verdict. Reason and Insight are set only
// for leads; DevdocsQuery only for non-leads.
type LeadJudgment struct {
	IsLead       bool    `json:"is_lead"`
	LeadScore    float32 `json:"lead_score" jsonschema:"minimum=0,maximum=1"`
	Reason       *string `json:"reason" jsonschema:"oneof_type=string;null,description=Short explanation. Only when is_lead is true."`
	DevdocsQuery *string `json:"devdocs_query" jsonschema:"oneof_type=string;null,description=2-6 word documentation search query. Only when is_lead is false."`
	Insight      *string `json:"insight" jsonschema:"oneof_type=string;null,description=One concrete technical sentence. Only when is_lead is true."`
}

// normalize enforces the lead/non-lead field exclusivity and score bounds on
// model output.
func (j *LeadJudgment) normalize() {
	if j.LeadScore < 0 {
		j.LeadScore = 0
	}
	if j.LeadScore > 1 {
		j.LeadScore = 1
	}
	if j.IsLead {
		j.DevdocsQuery = nil
		return
	}
	j.Reason = nil
	j.Insight = nil
}

type Tone string

const (
	TonePeer      Tone = "peer"
	ToneHelpful   Tone = "helpful"
	ToneTechnical Tone = "technical"
	ToneError     Tone = "error"
)

type CTAType string

const (
	CTADMInvite        CTAType = "dm_invite"
	CTAOfferHelp       CTAType = "offer_help"
	CTAShareExperience CTAType = "share_experience"
	CTAError           CTAType = "error"
)

// Reply is a ready-to-post Discord reply. An empty Text means the message
// deserves no reply.
type Reply struct {
	Text    string  `json:"reply" jsonschema:"description=Ready to use Discord reply text"`
	Tone    Tone    `json:"tone" jsonschema:"enum=peer,enum=helpful,enum=technical"`
	CTAType CTAType `json:"cta_type" jsonschema:"enum=dm_invite,enum=offer_help,enum=share_experience"`
}

// RAGStatus records how the documentation insight was obtained.
type RAGStatus string

const (
	RAGAbsent   RAGStatus = ""
	RAGDisabled RAGStatus = "disabled"
	RAGNoQuery  RAGStatus = "no_query"
	RAGFound    RAGStatus = "found"
	RAGEmpty    RAGStatus = "empty"
	RAGFailed   RAGStatus = "failed"
)

// RAGInsight is the single sentence distilled from documentation search.
type RAGInsight struct {
	Status RAGStatus
	Text   string
}

// Present reports whether there is an insight to embed in a reply.
func (r RAGInsight) Present() bool {
	return r.Status == RAGFound && r.Text != ""
}

// MarshalJSON writes the insight text, or null when there is none.
func (r RAGInsight) MarshalJSON() ([]byte, error) {
	if !r.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Text)
}

// UnmarshalJSON restores a found insight; null yields the zero value since
// the reason there was no insight is not persisted.
func (r *RAGInsight) UnmarshalJSON(data []byte) error {
	*r = RAGInsight{}
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &r.Text); err != nil {
		return err
	}
	r.Status = RAGFound
	return nil
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionRevise  Decision = "revise"
	DecisionReject  Decision = "reject"
)

// Validation is a reviewer's verdict on a drafted reply.
type Validation struct {
	Decision Decision `json:"decision" jsonschema:"enum=approve,enum=revise,enum=reject"`
	Feedback string   `json:"feedback" jsonschema:"description=What to change. Empty when approving."`
}

// LeadInput is what the lead judge sees.
type LeadInput struct {
	Message string
	Intent  string
	Domain  string
}

// ReplyInput is what the reply generators and the validator see.
type ReplyInput struct {
	Message   string
	Intent    string
	Domain    string
	LeadScore float32
	// Insight is embedded verbatim; empty means none.
	Insight string
	// Feedback from a rejected previous draft, if any.
	Feedback string
}
