package classifier

// Failure markers written into results in place of a real value.
const (
	TechnicalFailure  = "Category inference error"
	IntentFailure     = "Intent inference error"
	DomainFailure     = "Domain inference error"
	LeadJudgeFailure  = "Lead Judge inference error"
	ReplyFailure      = "Response generation error"
	ValidationFailure = "validation error"
)

func FallbackTechnical() Label[TechnicalCategory] {
	return Failed[TechnicalCategory](TechnicalFailure)
}

func FallbackIntent() Label[Intent] {
	return Failed[Intent](IntentFailure)
}

func FallbackDomain() Label[Domain] {
	return Failed[Domain](DomainFailure)
}

// FallbackLead marks every text field so a failed judgment is never
// mistaken for a real non-lead.
func FallbackLead() LeadJudgment {
	marker := LeadJudgeFailure
	return LeadJudgment{
		IsLead:       false,
		LeadScore:    0,
		Reason:       &marker,
		DevdocsQuery: &marker,
		Insight:      &marker,
	}
}

func FallbackReply() Reply {
	return Reply{Text: ReplyFailure, Tone: ToneError, CTAType: CTAError}
}

func FallbackRAG() RAGInsight {
	return RAGInsight{Status: RAGFailed}
}

// FallbackValidation approves, so a broken validator never loops.
func FallbackValidation() Validation {
	return Validation{Decision: DecisionApprove, Feedback: ValidationFailure}
}
