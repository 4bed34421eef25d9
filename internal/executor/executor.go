package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/scoring"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// Executor runs one seed to completion and returns its scored outcome.
// Calls are blocking and never overlap.
type Executor interface {
	Execute(ctx context.Context, seed *models.Seed) (*models.RunOutcome, error)
}

// Func adapts a function to the Executor interface
type Func func(ctx context.Context, seed *models.Seed) (*models.RunOutcome, error)

// Execute calls f(ctx, seed)
func (f Func) Execute(ctx context.Context, seed *models.Seed) (*models.RunOutcome, error) {
	return f(ctx, seed)
}

// Runner plays one episode and returns its raw record, unscored.
type Runner interface {
	Run(ctx context.Context, seed *models.Seed) (*models.Episode, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, seed *models.Seed) (*models.Episode, error)

// Run calls f(ctx, seed)
func (f RunnerFunc) Run(ctx context.Context, seed *models.Seed) (*models.Episode, error) {
	return f(ctx, seed)
}

// Scoring runs episodes and scores them locally
type Scoring struct {
	runner Runner
	scorer *scoring.Scorer
}

// NewScoring creates an executor that scores the runner's episodes
func NewScoring(runner Runner, scorer *scoring.Scorer) *Scoring {
	return &Scoring{runner: runner, scorer: scorer}
}

// Execute runs the seed and scores the episode
func (s *Scoring) Execute(ctx context.Context, seed *models.Seed) (*models.RunOutcome, error) {
	ep, err := s.runner.Run(ctx, seed)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, errors.New("runner returned no episode")
	}
	return s.scorer.Score(ep), nil
}

// Safe turns executor failures into ERROR outcomes so callers only ever see
// an outcome or a cancelled context.
type Safe struct {
	inner      Executor
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewSafe wraps inner. A positive runTimeout bounds every single run.
func NewSafe(inner Executor, runTimeout time.Duration) *Safe {
	return &Safe{inner: inner, runTimeout: runTimeout, logger: logger.Default}
}

// SetLogger sets the logger used to report failed runs
func (s *Safe) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Execute never returns an error unless ctx itself is done.
func (s *Safe) Execute(ctx context.Context, seed *models.Seed) (out *models.RunOutcome, err error) {
	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Executor panicked", "round_id", seed.RoundID, "panic", fmt.Sprint(r))
			out, err = models.ErrorOutcome(), nil
		}
	}()

	out, err = s.inner.Execute(runCtx, seed)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		s.logger.Warn("Executor failed", "round_id", seed.RoundID, "error", err)
		return models.ErrorOutcome(), nil
	}
	if out == nil {
		s.logger.Warn("Executor returned no outcome", "round_id", seed.RoundID)
		return models.ErrorOutcome(), nil
	}
	return out, nil
}
