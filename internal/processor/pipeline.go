package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/scout/internal/prefilter"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

// Pipeline is the whole flow from parsed transcript to persisted results.
type Pipeline struct {
	filter *prefilter.Engine
	proc   *Processor
	logger *slog.Logger
}

func NewPipeline(filter *prefilter.Engine, proc *Processor, logger *slog.Logger) *Pipeline {
	return &Pipeline{filter: filter, proc: proc, logger: logger}
}

// Run pre-filters msgs and processes the survivors. A blacklist write
// failure is logged and does not stop the batch.
func (p *Pipeline) Run(ctx context.Context, msgs []transcript.ChatMessage) (prefilter.Report, *BatchResult, error) {
	report, err := p.filter.Run(msgs)
	if err != nil {
		p.logger.Error("blacklist update failed", "error", err)
	}
	if len(report.Candidates) == 0 {
		p.logger.Info("no candidates after pre-filter", "messages", len(msgs))
		return report, nil, nil
	}

	res, err := p.proc.Run(ctx, report.Candidates)
	if err != nil {
		return report, res, fmt.Errorf("process candidates: %w", err)
	}
	return report, res, nil
}

// RunFile parses and processes a transcript file.
func (p *Pipeline) RunFile(ctx context.Context, path string) (prefilter.Report, *BatchResult, error) {
	msgs, err := transcript.ParseFile(path)
	if err != nil {
		return prefilter.Report{}, nil, err
	}
	p.logger.Info("transcript parsed", "path", path, "messages", len(msgs))
	return p.Run(ctx, msgs)
}
