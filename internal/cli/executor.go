package cli

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/executor"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/scoring"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/sim"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
)

// buildExecutor creates the configured executor. The returned close function
// releases any connection and is never nil.
func buildExecutor(ctx context.Context, cfg *config.Config) (executor.Executor, func() error, error) {
	scorer := scoring.NewScorer(scoring.NewDetector(cfg.Conflict))

	switch cfg.Executor.Kind {
	case "kinematic":
		world := sim.New(cfg.Executor.Kinematic, cfg.Campaign.RNGSeed)
		world.SetLogger(logger.Default)
		return executor.NewScoring(world, scorer), func() error { return nil }, nil

	case "remote":
		remote, err := executor.Dial(cfg.Executor.Address)
		if err != nil {
			return nil, nil, err
		}
		remote.SetLogger(logger.Default)
		ready, err := cfg.Executor.GetReadyTimeout()
		if err != nil {
			remote.Close()
			return nil, nil, err
		}
		logger.Info("Waiting for scenario bridge", "address", cfg.Executor.Address, "timeout", ready.String())
		if err := remote.WaitReady(ctx, ready); err != nil {
			remote.Close()
			return nil, nil, err
		}
		return executor.NewScoring(remote, scorer), remote.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown executor kind %q", cfg.Executor.Kind)
	}
}
