package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/scout/internal/api"
	"github.com/MikeSquared-Agency/scout/internal/blacklist"
	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/config"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/hermes"
	"github.com/MikeSquared-Agency/scout/internal/llm"
	"github.com/MikeSquared-Agency/scout/internal/prefilter"
	"github.com/MikeSquared-Agency/scout/internal/processor"
	"github.com/MikeSquared-Agency/scout/internal/retrieval"
	"github.com/MikeSquared-Agency/scout/internal/slack"
	"github.com/MikeSquared-Agency/scout/internal/store"
)

// app carries what every subcommand needs once config is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

// services is the wired pipeline and the optional integrations behind it.
// close releases everything in reverse order of construction.
type services struct {
	blacklist *blacklist.Store
	graph     *graph.Graph
	pipeline  *processor.Pipeline
	breakers  map[string]api.StateReporter
	hermes    *hermes.Client
	slack     *slack.Poster

	closers []func()
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (a *app) openBlacklist() (*blacklist.Store, error) {
	bl, err := blacklist.Open(a.cfg.BlacklistFile, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open blacklist: %w", err)
	}
	return bl, nil
}

// build wires the models, retrieval backend, graph, sinks and pipeline.
// Postgres, NATS and Slack are attached only when configured.
func (a *app) build(ctx context.Context, opts processor.Options) (*services, error) {
	svc := &services{breakers: make(map[string]api.StateReporter)}
	ok := false
	defer func() {
		if !ok {
			svc.close()
		}
	}()

	bl, err := a.openBlacklist()
	if err != nil {
		return nil, err
	}
	svc.blacklist = bl

	fast, judge, err := a.completers(svc)
	if err != nil {
		return nil, err
	}

	retriever, err := a.retriever(ctx, svc)
	if err != nil {
		return nil, err
	}

	cls := classifier.New(classifier.Options{
		Fast:       llm.NewStructured(fast, a.logger),
		Judge:      llm.NewStructured(judge, a.logger),
		Summarizer: fast,
		Retriever:  retriever,
		TopK:       a.cfg.RetrievalTopK,
		Threshold:  a.cfg.RetrievalThreshold,
		Logger:     a.logger,
	})
	svc.graph = graph.New(cls, graph.Router{Validate: a.cfg.ValidateReplies}, a.logger)

	sinks, err := a.sinks(ctx, svc)
	if err != nil {
		return nil, err
	}

	proc := processor.New(svc.graph, opts, a.logger, sinks...)
	svc.pipeline = processor.NewPipeline(prefilter.New(bl, a.logger), proc, a.logger)

	ok = true
	return svc, nil
}

func (a *app) processorOptions() processor.Options {
	return processor.Options{
		MaxConcurrent:    a.cfg.MaxConcurrent,
		BatchSize:        a.cfg.BatchSize,
		CandidateTimeout: a.cfg.CandidateTimeout,
		OutputDir:        a.cfg.OutputDir,
	}
}

// completers returns the fast classifier model and the lead judge, each
// behind its own circuit breaker.
func (a *app) completers(svc *services) (fast, judge llm.Completer, err error) {
	if a.cfg.OpenAIAPIKey == "" {
		return nil, nil, errors.New("OPENAI_API_KEY is required")
	}
	fastBreaker := llm.NewBreaker("openai", llm.NewOpenAIClient(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel, a.cfg.OpenAIBaseURL), a.logger)
	svc.breakers["openai"] = fastBreaker
	a.logger.Info("openai client ready", "model", a.cfg.OpenAIModel)

	switch a.cfg.LeadJudgeProvider {
	case config.ProviderAnthropic:
		if a.cfg.AnthropicAPIKey == "" {
			return nil, nil, errors.New("ANTHROPIC_API_KEY is required when LEAD_JUDGE_PROVIDER=anthropic")
		}
		b := llm.NewBreaker("anthropic", llm.NewAnthropicClient(a.cfg.AnthropicAPIKey, a.cfg.AnthropicModel), a.logger)
		svc.breakers["anthropic"] = b
		a.logger.Info("anthropic client ready", "model", a.cfg.AnthropicModel)
		return fastBreaker, b, nil
	default:
		return fastBreaker, fastBreaker, nil
	}
}

// retriever returns nil when documentation lookup is disabled.
func (a *app) retriever(ctx context.Context, svc *services) (retrieval.Retriever, error) {
	switch a.cfg.RetrievalBackend {
	case config.RetrievalSQLite:
		idx, err := retrieval.OpenSQLite(a.cfg.RetrievalDSN)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, func() { _ = idx.Close() })
		a.logger.Info("sqlite retrieval ready", "path", a.cfg.RetrievalDSN)
		return idx, nil
	case config.RetrievalPostgres:
		idx, err := retrieval.NewPostgres(ctx, a.cfg.RetrievalDSN)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, idx.Close)
		if err := idx.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.logger.Info("postgres retrieval ready")
		return idx, nil
	default:
		a.logger.Info("retrieval disabled")
		return nil, nil
	}
}

func (a *app) sinks(ctx context.Context, svc *services) ([]processor.Sink, error) {
	var sinks []processor.Sink

	if a.cfg.DatabaseURL != "" {
		db, err := store.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		svc.closers = append(svc.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, db)
		a.logger.Info("database connected")
	}

	if a.cfg.NatsURL != "" {
		hc, err := hermes.NewClient(ctx, a.cfg.NatsURL, a.cfg.NatsToken, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		svc.closers = append(svc.closers, hc.Close)
		svc.hermes = hc
		sinks = append(sinks, hermes.NewPublisher(hc))
		a.logger.Info("NATS connected", "url", a.cfg.NatsURL)
	}

	if a.cfg.SlackBotToken != "" && a.cfg.SlackChannel != "" {
		svc.slack = slack.NewPoster(a.cfg.SlackBotToken, a.cfg.SlackChannel, a.logger)
		sinks = append(sinks, svc.slack)
		a.logger.Info("slack poster ready", "channel", a.cfg.SlackChannel)
	} else {
		a.logger.Warn("slack not configured, leads will not be posted for review")
	}

	return sinks, nil
}
