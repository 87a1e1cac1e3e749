package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
)

var errStage = errors.New("model unavailable")

// fakeStages returns fixed values; any nil func returns errStage.
type fakeStages struct {
	mu    sync.Mutex
	calls []StageID

	technical  func() (classifier.TechnicalCategory, error)
	intent     func() (classifier.Intent, error)
	domain     func() (classifier.Domain, error)
	judge      func(classifier.LeadInput) (classifier.LeadJudgment, error)
	leadReply  func(classifier.ReplyInput) (classifier.Reply, error)
	rag        func(query string) (classifier.RAGInsight, error)
	reputation func(classifier.ReplyInput) (classifier.Reply, error)
	validate   func(classifier.ReplyInput) (classifier.Validation, error)
}

func (f *fakeStages) record(s StageID) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeStages) ClassifyTechnical(ctx context.Context, text string) (classifier.TechnicalCategory, error) {
	f.record(StageTechnical)
	if f.technical == nil {
		return "", errStage
	}
	return f.technical()
}

func (f *fakeStages) ClassifyIntent(ctx context.Context, text string) (classifier.Intent, error) {
	f.record(StageIntent)
	if f.intent == nil {
		return "", errStage
	}
	return f.intent()
}

func (f *fakeStages) ClassifyDomain(ctx context.Context, text string) (classifier.Domain, error) {
	f.record(StageDomain)
	if f.domain == nil {
		return "", errStage
	}
	return f.domain()
}

func (f *fakeStages) JudgeLead(ctx context.Context, in classifier.LeadInput) (classifier.LeadJudgment, error) {
	f.record(StageLeadJudge)
	if f.judge == nil {
		return classifier.LeadJudgment{}, errStage
	}
	return f.judge(in)
}

func (f *fakeStages) GenerateLeadReply(ctx context.Context, in classifier.ReplyInput) (classifier.Reply, error) {
	f.record(StageLeadReply)
	if f.leadReply == nil {
		return classifier.Reply{}, errStage
	}
	return f.leadReply(in)
}

func (f *fakeStages) RetrieveInsight(ctx context.Context, query string) (classifier.RAGInsight, error) {
	f.record(StageRAG)
	if f.rag == nil {
		return classifier.RAGInsight{}, errStage
	}
	return f.rag(query)
}

func (f *fakeStages) GenerateReputationReply(ctx context.Context, in classifier.ReplyInput) (classifier.Reply, error) {
	f.record(StageReputation)
	if f.reputation == nil {
		return classifier.Reply{}, errStage
	}
	return f.reputation(in)
}

func (f *fakeStages) ValidateReply(ctx context.Context, in classifier.ReplyInput, draft classifier.Reply) (classifier.Validation, error) {
	f.record(StageValidate)
	if f.validate == nil {
		return classifier.Validation{}, errStage
	}
	return f.validate(in)
}

func strPtr(s string) *string { return &s }

// happyStages qualifies every message as a lead.
func happyStages() *fakeStages {
	return &fakeStages{
		technical: func() (classifier.TechnicalCategory, error) { return classifier.TechnicalProblem, nil },
		intent:    func() (classifier.Intent, error) { return classifier.IntentDebugging, nil },
		domain:    func() (classifier.Domain, error) { return classifier.DomainDeployment, nil },
		judge: func(classifier.LeadInput) (classifier.LeadJudgment, error) {
			return classifier.LeadJudgment{IsLead: true, LeadScore: 0.85, Reason: strPtr("production outage"), Insight: strPtr("Check the CORS allow-list for the new domain.")}, nil
		},
		leadReply: func(in classifier.ReplyInput) (classifier.Reply, error) {
			return classifier.Reply{Text: "Had this exact thing after a domain switch. " + in.Insight, Tone: classifier.TonePeer, CTAType: classifier.CTAShareExperience}, nil
		},
		rag: func(string) (classifier.RAGInsight, error) {
			return classifier.RAGInsight{Status: classifier.RAGFound, Text: "Docs sentence."}, nil
		},
		reputation: func(in classifier.ReplyInput) (classifier.Reply, error) {
			return classifier.Reply{Text: in.Insight, Tone: classifier.ToneHelpful, CTAType: classifier.CTAOfferHelp}, nil
		},
		validate: func(classifier.ReplyInput) (classifier.Validation, error) {
			return classifier.Validation{Decision: classifier.DecisionApprove}, nil
		},
	}
}
