// Package processor runs filtered candidates through the classification
// graph concurrently and persists the partitioned results.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/output"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

const (
	DefaultMaxConcurrent    = 15
	DefaultBatchSize        = 20
	DefaultCandidateTimeout = 90 * time.Second
)

// Runner walks one candidate through the graph.
type Runner interface {
	Run(ctx context.Context, index int, msg transcript.ChatMessage) (*graph.State, error)
}

// Sink receives every completed result as it finishes.
type Sink interface {
	Name() string
	Consume(ctx context.Context, runID string, rec output.Record) error
}

// BatchSink is a Sink that also wants the end-of-batch summary.
type BatchSink interface {
	Sink
	BatchCompleted(ctx context.Context, sum output.Summary) error
}

type Options struct {
	MaxConcurrent    int
	BatchSize        int
	CandidateTimeout time.Duration
	OutputDir        string
}

// Processor is safe to reuse across batches but runs them one at a time.
type Processor struct {
	runner Runner
	sinks  []Sink
	opts   Options
	logger *slog.Logger

	runMu sync.Mutex
}

func New(runner Runner, opts Options, logger *slog.Logger, sinks ...Sink) *Processor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.CandidateTimeout <= 0 {
		opts.CandidateTimeout = DefaultCandidateTimeout
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Processor{runner: runner, sinks: sinks, opts: opts, logger: logger}
}

// BatchResult is the outcome of one Run. Records are ordered by index.
type BatchResult struct {
	RunID   string          `json:"run_id"`
	Records []output.Record `json:"records"`
	Summary output.Summary  `json:"summary"`
}

// batch is the mutable state shared by one Run's goroutines.
type batch struct {
	mu        sync.Mutex
	records   []output.Record
	done      []bool
	completed int
	errs      []error
}

func (b *batch) add(rec output.Record) (n int, snapshot []output.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, rec)
	b.done[rec.Index] = true
	b.completed++
	return b.completed, append([]output.Record(nil), b.records...)
}

func (b *batch) fail(err error) {
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}

// Run processes every candidate and returns once all have a result. Each
// candidate lands in exactly one partition. If ctx is cancelled, candidates
// without a result are recorded as errors, an interruption snapshot is
// written and ctx.Err() is returned with the partial result. Sink and file
// failures never stop the batch; they are returned joined.
func (p *Processor) Run(ctx context.Context, candidates []transcript.ChatMessage) (*BatchResult, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	runID := uuid.New().String()
	started := time.Now()
	writer := output.NewWriter(p.opts.OutputDir, runID, p.logger)
	b := &batch{done: make([]bool, len(candidates))}

	p.logger.Info("batch started",
		"run_id", runID,
		"candidates", len(candidates),
		"max_concurrent", p.opts.MaxConcurrent,
	)

	var g errgroup.Group
	g.SetLimit(p.opts.MaxConcurrent)
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec := p.runOne(ctx, i, c)
			n, snapshot := b.add(rec)
			p.deliver(ctx, runID, rec, b)
			if n%p.opts.BatchSize == 0 {
				if _, err := writer.WritePartial(n, snapshot); err != nil {
					p.logger.Error("checkpoint failed", "run_id", runID, "completed", n, "error", err)
					b.fail(err)
				}
				p.logger.Info("checkpoint", "run_id", runID, "completed", n, "total", len(candidates))
			}
			return nil
		})
	}
	_ = g.Wait()

	flushCtx := context.WithoutCancel(ctx)
	// A signal after the last completion still counts as a finished batch.
	interrupted := false
	for _, d := range b.done {
		if !d {
			interrupted = true
			break
		}
	}
	if interrupted {
		for i, c := range candidates {
			if b.done[i] {
				continue
			}
			rec := output.NewRecord(i, c, nil, fmt.Errorf("batch interrupted: %w", ctx.Err()), time.Now())
			b.add(rec)
			recordOutcome(rec)
		}
	}

	var files []string
	var err error
	if interrupted {
		files, err = writer.WriteInterrupted(b.records)
	} else {
		files, err = writer.WriteFinal(b.records)
	}
	if err != nil {
		p.logger.Error("writing results failed", "run_id", runID, "error", err)
		b.errs = append(b.errs, err)
	}

	sum := output.Summarize(runID, b.records, started, time.Since(started))
	sum.Interrupted = interrupted
	sum.Files = files
	for _, s := range p.sinks {
		bs, ok := s.(BatchSink)
		if !ok {
			continue
		}
		if err := bs.BatchCompleted(flushCtx, sum); err != nil {
			sinkErrors.WithLabelValues(s.Name()).Inc()
			p.logger.Error("batch summary sink failed", "sink", s.Name(), "run_id", runID, "error", err)
			b.errs = append(b.errs, fmt.Errorf("sink %s: %w", s.Name(), err))
		}
	}

	records := append([]output.Record(nil), b.records...)
	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })

	p.logger.Info("batch finished",
		"run_id", runID,
		"total", sum.Total,
		"leads", sum.Leads,
		"no_leads", sum.NoLeads,
		"errors", sum.Errors,
		"interrupted", interrupted,
		"duration", sum.Duration.String(),
	)

	res := &BatchResult{RunID: runID, Records: records, Summary: sum}
	if interrupted {
		return res, errors.Join(append([]error{ctx.Err()}, b.errs...)...)
	}
	return res, errors.Join(b.errs...)
}

// runOne never panics and always returns a record for index.
func (p *Processor) runOne(ctx context.Context, index int, c transcript.ChatMessage) (rec output.Record) {
	inflight.Inc()
	start := time.Now()
	defer func() {
		inflight.Dec()
		if r := recover(); r != nil {
			p.logger.Error("candidate panicked", "index", index, "panic", r)
			rec = output.NewRecord(index, c, nil, fmt.Errorf("panic: %v", r), time.Now())
		}
		candidateDuration.Observe(time.Since(start).Seconds())
		recordOutcome(rec)
	}()

	cctx, cancel := context.WithTimeout(ctx, p.opts.CandidateTimeout)
	defer cancel()

	state, err := p.runner.Run(cctx, index, c)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		err = fmt.Errorf("batch interrupted: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("candidate timed out after %s: %w", p.opts.CandidateTimeout, err)
	}
	if err != nil {
		p.logger.Warn("candidate failed", "index", index, "user", c.Username, "error", err)
	}
	return output.NewRecord(index, c, state, err, time.Now())
}

// deliver hands rec to every sink. Failures are counted and kept.
func (p *Processor) deliver(ctx context.Context, runID string, rec output.Record, b *batch) {
	sctx := context.WithoutCancel(ctx)
	for _, s := range p.sinks {
		if err := s.Consume(sctx, runID, rec); err != nil {
			sinkErrors.WithLabelValues(s.Name()).Inc()
			p.logger.Error("result sink failed", "sink", s.Name(), "run_id", runID, "index", rec.Index, "error", err)
			b.fail(fmt.Errorf("sink %s, candidate %d: %w", s.Name(), rec.Index, err))
		}
	}
}
