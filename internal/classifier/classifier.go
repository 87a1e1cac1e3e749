// Package classifier runs the individual model-backed stages of the lead
// pipeline. Each stage returns (value, error); callers pick the fallback.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/scout/internal/llm"
	"github.com/MikeSquared-Agency/scout/internal/retrieval"
)

// Stage op names, also used as log and error prefixes.
const (
	OpTechnical  = "technical_gate"
	OpIntent     = "intent_classify"
	OpDomain     = "domain_classify"
	OpLeadJudge  = "lead_judge"
	OpLeadReply  = "generate_response"
	OpRAG        = "process_rag"
	OpReputation = "reputation_response"
	OpValidate   = "validate_reply"
)

const insightMaxTokens = 200

// Invoker fills out with a schema-validated model response.
type Invoker interface {
	Invoke(ctx context.Context, op, system, user string, out any) error
}

// Classifier holds the model and retrieval collaborators for every stage.
type Classifier struct {
	fast       Invoker
	judge      Invoker
	summarizer llm.Completer
	retriever  retrieval.Retriever
	topK       int
	threshold  float64
	logger     *slog.Logger
}

// Options configures a Classifier. Judge defaults to Fast. A nil Retriever
// disables documentation lookup.
type Options struct {
	Fast       Invoker
	Judge      Invoker
	Summarizer llm.Completer
	Retriever  retrieval.Retriever
	TopK       int
	Threshold  float64
	Logger     *slog.Logger
}

func New(opts Options) *Classifier {
	c := &Classifier{
		fast:       opts.Fast,
		judge:      opts.Judge,
		summarizer: opts.Summarizer,
		retriever:  opts.Retriever,
		topK:       opts.TopK,
		threshold:  opts.Threshold,
		logger:     opts.Logger,
	}
	if c.judge == nil {
		c.judge = c.fast
	}
	if c.topK <= 0 {
		c.topK = 3
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type technicalResult struct {
	Category TechnicalCategory `json:"category" jsonschema:"enum=technical_problem,enum=not_technical"`
}

type intentResult struct {
	Intent Intent `json:"intent" jsonschema:"enum=debugging,enum=planning,enum=migration,enum=optimization,enum=integration,enum=evaluation,enum=scaling,enum=out_of_scope"`
}

type domainResult struct {
	Domain Domain `json:"domain" jsonschema:"enum=database,enum=auth,enum=api_integration,enum=deployment,enum=scaling,enum=security,enum=migration,enum=mcp,enum=commercialization,enum=architecture,enum=out_of_scope"`
}

func postMessage(text string) string {
	return "Post:\n" + text
}

func (c *Classifier) ClassifyTechnical(ctx context.Context, text string) (TechnicalCategory, error) {
	var out technicalResult
	if err := c.fast.Invoke(ctx, OpTechnical, technicalPrompt, postMessage(text), &out); err != nil {
		return "", err
	}
	return out.Category, nil
}

func (c *Classifier) ClassifyIntent(ctx context.Context, text string) (Intent, error) {
	var out intentResult
	if err := c.fast.Invoke(ctx, OpIntent, intentPrompt, postMessage(text), &out); err != nil {
		return "", err
	}
	return out.Intent, nil
}

func (c *Classifier) ClassifyDomain(ctx context.Context, text string) (Domain, error) {
	var out domainResult
	if err := c.fast.Invoke(ctx, OpDomain, domainPrompt, postMessage(text), &out); err != nil {
		return "", err
	}
	return out.Domain, nil
}

// JudgeLead decides whether the message is a consulting lead.
func (c *Classifier) JudgeLead(ctx context.Context, in LeadInput) (LeadJudgment, error) {
	user := fmt.Sprintf("Judge this lead:\nuser_message: %s\nintent: %s\ndomain: %s", in.Message, in.Intent, in.Domain)

	var out LeadJudgment
	if err := c.judge.Invoke(ctx, OpLeadJudge, leadJudgePrompt, user, &out); err != nil {
		return LeadJudgment{}, err
	}
	out.normalize()
	return out, nil
}

func replyMessage(in ReplyInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate reply:\nOriginal message: %s\nDomain: %s\nIntent: %s\nLead_score: %.2f\nInsight: %s",
		in.Message, in.Domain, in.Intent, in.LeadScore, in.Insight)
	if in.Feedback != "" {
		fmt.Fprintf(&b, "\nReviewer feedback on the previous draft: %s", in.Feedback)
	}
	return b.String()
}

// GenerateLeadReply drafts a reply to a qualified lead.
func (c *Classifier) GenerateLeadReply(ctx context.Context, in ReplyInput) (Reply, error) {
	var out Reply
	if err := c.fast.Invoke(ctx, OpLeadReply, leadReplyPrompt, replyMessage(in), &out); err != nil {
		return Reply{}, err
	}
	return out, nil
}

// GenerateReputationReply drafts a helpful reply to a non-lead.
func (c *Classifier) GenerateReputationReply(ctx context.Context, in ReplyInput) (Reply, error) {
	var out Reply
	if err := c.fast.Invoke(ctx, OpReputation, reputationReplyPrompt, replyMessage(in), &out); err != nil {
		return Reply{}, err
	}
	return out, nil
}

// RetrieveInsight searches the docs for the judge's query and distills one
// sentence answering it. Only retrieval or summarizer failures are errors.
func (c *Classifier) RetrieveInsight(ctx context.Context, query string) (RAGInsight, error) {
	if c.retriever == nil || c.summarizer == nil {
		return RAGInsight{Status: RAGDisabled}, nil
	}
	query = strings.TrimSpace(query)
	if query == "" || query == LeadJudgeFailure {
		return RAGInsight{Status: RAGNoQuery}, nil
	}

	passages, err := c.retriever.Search(ctx, query, c.topK, c.threshold)
	if err != nil {
		return RAGInsight{}, fmt.Errorf("%s: search %q: %w", OpRAG, query, err)
	}
	c.logger.Debug("documentation search", "query", query, "passages", len(passages))

	text, err := c.summarizer.Complete(ctx, llm.CompletionRequest{
		System:    insightPrompt,
		User:      fmt.Sprintf("Question: %s\nDocumentation:\n%s", query, retrieval.Format(passages)),
		MaxTokens: insightMaxTokens,
	})
	if err != nil {
		return RAGInsight{}, fmt.Errorf("%s: summarize: %w", OpRAG, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return RAGInsight{Status: RAGEmpty}, nil
	}
	return RAGInsight{Status: RAGFound, Text: text}, nil
}

// ValidateReply reviews a drafted reply.
func (c *Classifier) ValidateReply(ctx context.Context, in ReplyInput, draft Reply) (Validation, error) {
	user := replyMessage(ReplyInput{
		Message:   in.Message,
		Intent:    in.Intent,
		Domain:    in.Domain,
		LeadScore: in.LeadScore,
		Insight:   in.Insight,
	}) + "\nDraft reply: " + draft.Text

	var out Validation
	if err := c.fast.Invoke(ctx, OpValidate, validatePrompt, user, &out); err != nil {
		return Validation{}, err
	}
	return out, nil
}
