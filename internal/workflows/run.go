package workflows

import (
	"context"
	"time"

	"go.uber.org/zap"

	"forum-reactor/internal/core"
	"forum-reactor/pkg/utils"
)

// Attempter processes a single target
type Attempter interface {
	Attempt(ctx context.Context, target core.Target) core.Outcome
}

// Summary counts outcomes of a run
type Summary struct {
	Applied int
	Removed int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// Total returns the number of processed targets
func (s Summary) Total() int {
	return s.Applied + s.Removed + s.Skipped + s.Failed
}

func (s *Summary) add(kind core.OutcomeKind) {
	switch kind {
	case core.OutcomeApplied:
		s.Applied++
	case core.OutcomeRemoved:
		s.Removed++
	case core.OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Runner feeds targets to the engine one at a time and records every outcome
type Runner struct {
	engine     Attempter
	repository core.RepositoryPort
	logger     *zap.Logger
}

// NewRunner creates a new runner. repository may be nil.
func NewRunner(engine Attempter, repository core.RepositoryPort, logger *zap.Logger) *Runner {
	return &Runner{
		engine:     engine,
		repository: repository,
		logger:     logger,
	}
}

// Process runs one attempt and records it
func (r *Runner) Process(ctx context.Context, target core.Target) core.Outcome {
	out := r.engine.Attempt(ctx, target)

	if r.repository != nil {
		// Record even when the run is being cancelled
		if err := r.repository.RecordAttempt(context.WithoutCancel(ctx), core.AttemptFromOutcome(&out)); err != nil {
			r.logger.Warn("Failed to record attempt", zap.String("post_id", target.PostID), zap.Error(err))
		}
	}
	return out
}

// Run consumes targets sequentially until the channel closes or ctx is done. The next
// attempt starts only after the previous one, cooldown included, has returned.
func (r *Runner) Run(ctx context.Context, targets <-chan core.Target) Summary {
	start := time.Now()
	var summary Summary

	defer func() {
		summary.Elapsed = time.Since(start)
		r.logger.Info("Run finished",
			zap.Int("processed", summary.Total()),
			zap.Int("applied", summary.Applied),
			zap.Int("removed", summary.Removed),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
			zap.String("elapsed", utils.FormatDuration(summary.Elapsed)),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			return summary
		case target, ok := <-targets:
			if !ok {
				return summary
			}
			out := r.Process(ctx, target)
			summary.add(out.Kind)
		}
	}
}
