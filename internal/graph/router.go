package graph

import "github.com/MikeSquared-Agency/scout/internal/classifier"

// MaxRegenerations caps validate/adjust round trips per candidate.
const MaxRegenerations = 2

// Router picks the next stage. Validate enables the reply review loop.
type Router struct {
	Validate bool
}

// Next returns the stage to run after from, given the state it left behind.
func (r Router) Next(from StageID, s *State) StageID {
	switch from {
	case StageTechnical:
		if s.Technical.Is(classifier.TechnicalProblem) {
			return StageIntent
		}
	case StageIntent:
		if inScope(s) {
			return StageDomain
		}
	case StageDomain:
		// The domain gate looks at intent; an out-of-scope domain still
		// reaches the judge.
		if inScope(s) {
			return StageLeadJudge
		}
	case StageLeadJudge:
		if s.IsLead() {
			return StageLeadReply
		}
		return StageRAG
	case StageRAG:
		return StageReputation
	case StageLeadReply, StageReputation:
		if r.Validate {
			return StageValidate
		}
	case StageValidate:
		if ShouldRegenerate(s) {
			return StageAdjust
		}
	case StageAdjust:
		if s.IsLead() {
			return StageLeadReply
		}
		return StageReputation
	}
	return StageEnd
}

func inScope(s *State) bool {
	return s.Intent.OK() && !s.Intent.Is(classifier.IntentOutOfScope)
}

// ShouldRegenerate reports whether the reviewer asked for another draft and
// attempts remain.
func ShouldRegenerate(s *State) bool {
	if s.Validation == nil || s.Validation.Decision == classifier.DecisionApprove {
		return false
	}
	return s.RegenerationAttempts < MaxRegenerations
}
