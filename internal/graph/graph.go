package graph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// maxSteps bounds a traversal: the longest legal path is 13 stages.
const maxSteps = 32

// Stages is the set of model-backed operations a traversal calls.
type Stages interface {
	ClassifyTechnical(ctx context.Context, text string) (classifier.TechnicalCategory, error)
	ClassifyIntent(ctx context.Context, text string) (classifier.Intent, error)
	ClassifyDomain(ctx context.Context, text string) (classifier.Domain, error)
	JudgeLead(ctx context.Context, in classifier.LeadInput) (classifier.LeadJudgment, error)
	GenerateLeadReply(ctx context.Context, in classifier.ReplyInput) (classifier.Reply, error)
	RetrieveInsight(ctx context.Context, query string) (classifier.RAGInsight, error)
	GenerateReputationReply(ctx context.Context, in classifier.ReplyInput) (classifier.Reply, error)
	ValidateReply(ctx context.Context, in classifier.ReplyInput, draft classifier.Reply) (classifier.Validation, error)
}

// Graph executes candidates one at a time; it is safe for concurrent use.
type Graph struct {
	stages Stages
	router Router
	logger *slog.Logger
}

func New(stages Stages, router Router, logger *slog.Logger) *Graph {
	return &Graph{stages: stages, router: router, logger: logger}
}

// Run walks msg from the technical gate to end. Stage failures and panics
// become fallback values; an error is returned only when ctx ends before
// the walk completes or the graph itself misbehaves.
func (g *Graph) Run(ctx context.Context, index int, msg transcript.ChatMessage) (*State, error) {
	s := &State{Index: index, Message: msg}
	stage := StageTechnical

	for steps := 0; stage != StageEnd; steps++ {
		if steps >= maxSteps {
			return s, fmt.Errorf("candidate %d: exceeded %d stages", index, maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return s, fmt.Errorf("candidate %d at %s: %w", index, stage, err)
		}

		s.Path = append(s.Path, stage)
		patch := g.exec(ctx, stage, s)
		if err := s.apply(stage, patch); err != nil {
			return s, fmt.Errorf("candidate %d: %w", index, err)
		}
		stage = g.router.Next(stage, s)
	}

	if err := ctx.Err(); err != nil {
		return s, fmt.Errorf("candidate %d: %w", index, err)
	}
	return s, nil
}

// exec runs one stage, converting a panic into that stage's fallback.
func (g *Graph) exec(ctx context.Context, stage StageID, s *State) (patch Patch) {
	start := time.Now()
	defer func() {
		stageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			g.logger.Error("stage panicked",
				"stage", stage,
				"candidate", s.Index,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			stageOutcomes.WithLabelValues(string(stage), outcomePanic).Inc()
			patch = fallback(stage, s)
		}
	}()

	patch, err := g.call(ctx, stage, s)
	if err != nil {
		g.logger.Warn("stage failed, using fallback",
			"stage", stage,
			"candidate", s.Index,
			"error", err,
		)
		stageOutcomes.WithLabelValues(string(stage), outcomeFallback).Inc()
		return fallback(stage, s)
	}
	stageOutcomes.WithLabelValues(string(stage), outcomeOK).Inc()
	return patch
}

func (g *Graph) call(ctx context.Context, stage StageID, s *State) (Patch, error) {
	text := s.Message.Text

	switch stage {
	case StageTechnical:
		v, err := g.stages.ClassifyTechnical(ctx, text)
		if err != nil {
			return Patch{}, err
		}
		l := classifier.Ok(v)
		return Patch{Technical: &l}, nil

	case StageIntent:
		v, err := g.stages.ClassifyIntent(ctx, text)
		if err != nil {
			return Patch{}, err
		}
		l := classifier.Ok(v)
		return Patch{Intent: &l}, nil

	case StageDomain:
		v, err := g.stages.ClassifyDomain(ctx, text)
		if err != nil {
			return Patch{}, err
		}
		l := classifier.Ok(v)
		return Patch{Domain: &l}, nil

	case StageLeadJudge:
		j, err := g.stages.JudgeLead(ctx, classifier.LeadInput{
			Message: text,
			Intent:  s.Intent.String(),
			Domain:  s.Domain.String(),
		})
		if err != nil {
			return Patch{}, err
		}
		return Patch{Lead: &j}, nil

	case StageLeadReply:
		r, err := g.stages.GenerateLeadReply(ctx, replyInput(s))
		if err != nil {
			return Patch{}, err
		}
		return Patch{Reply: &r}, nil

	case StageRAG:
		var query string
		if s.Lead != nil && s.Lead.DevdocsQuery != nil {
			query = *s.Lead.DevdocsQuery
		}
		r, err := g.stages.RetrieveInsight(ctx, query)
		if err != nil {
			return Patch{}, err
		}
		return Patch{RAG: &r}, nil

	case StageReputation:
		r, err := g.stages.GenerateReputationReply(ctx, replyInput(s))
		if err != nil {
			return Patch{}, err
		}
		return Patch{Reply: &r}, nil

	case StageValidate:
		if s.Reply == nil {
			return Patch{}, fmt.Errorf("no reply to validate")
		}
		v, err := g.stages.ValidateReply(ctx, replyInput(s), *s.Reply)
		if err != nil {
			return Patch{}, err
		}
		return Patch{Validation: &v}, nil

	case StageAdjust:
		n := s.RegenerationAttempts + 1
		return Patch{RegenerationAttempts: &n}, nil
	}

	return Patch{}, fmt.Errorf("unknown stage %q", stage)
}

// replyInput gathers what a generator or validator needs from the state.
func replyInput(s *State) classifier.ReplyInput {
	in := classifier.ReplyInput{
		Message: s.Message.Text,
		Intent:  s.Intent.String(),
		Domain:  s.Domain.String(),
	}
	if s.Lead != nil {
		in.LeadScore = s.Lead.LeadScore
	}
	if s.IsLead() {
		if s.Lead.Insight != nil {
			in.Insight = *s.Lead.Insight
		}
	} else if s.RAG.Present() {
		in.Insight = s.RAG.Text
	}
	if s.RegenerationAttempts > 0 && s.Validation != nil {
		in.Feedback = s.Validation.Feedback
	}
	return in
}

func fallback(stage StageID, s *State) Patch {
	switch stage {
	case StageTechnical:
		l := classifier.FallbackTechnical()
		return Patch{Technical: &l}
	case StageIntent:
		l := classifier.FallbackIntent()
		return Patch{Intent: &l}
	case StageDomain:
		l := classifier.FallbackDomain()
		return Patch{Domain: &l}
	case StageLeadJudge:
		j := classifier.FallbackLead()
		return Patch{Lead: &j}
	case StageLeadReply, StageReputation:
		r := classifier.FallbackReply()
		return Patch{Reply: &r}
	case StageRAG:
		r := classifier.FallbackRAG()
		return Patch{RAG: &r}
	case StageValidate:
		v := classifier.FallbackValidation()
		return Patch{Validation: &v}
	case StageAdjust:
		n := s.RegenerationAttempts + 1
		return Patch{RegenerationAttempts: &n}
	}
	return Patch{}
}
