package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/fuzzing"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/report"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/statusd"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
)

// campaignOverrides are the run flags that replace config values when set
type campaignOverrides struct {
	resultDir  string
	store      string
	executor   string
	address    string
	statusAddr string
}

func (o campaignOverrides) apply(cfg *config.Config) error {
	if o.resultDir != "" {
		cfg.Campaign.ResultDir = o.resultDir
	}
	if o.store != "" {
		cfg.Campaign.Store = o.store
	}
	if o.executor != "" {
		cfg.Executor.Kind = o.executor
	}
	if o.address != "" {
		cfg.Executor.Address = o.address
	}
	if o.statusAddr != "" {
		cfg.Status.Addr = o.statusAddr
	}
	return cfg.Validate()
}

func newRunCmd(global *GlobalOpts) *cobra.Command {
	var overrides campaignOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run or resume a fuzzing campaign",
		Long: `Run a fuzzing campaign, resuming from the checkpoint in the result
directory if one exists. On completion or interruption the collision,
other and initial seeds are written to the result directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := overrides.apply(cfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return runCampaign(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&overrides.resultDir, "result-dir", "", "directory for checkpoints and deliverables")
	cmd.Flags().StringVar(&overrides.store, "store", "", "checkpoint backend (file, sqlite)")
	cmd.Flags().StringVar(&overrides.executor, "executor", "", "scenario executor (kinematic, remote)")
	cmd.Flags().StringVar(&overrides.address, "address", "", "scenario bridge address for the remote executor")
	cmd.Flags().StringVar(&overrides.statusAddr, "status-addr", "", "serve campaign status over HTTP on this address")

	return cmd
}

func runCampaign(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := checkpoint.NewStore(cfg.Campaign.Store, cfg.Campaign.ResultDir, cfg.Campaign.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()
	if fs, ok := store.(*checkpoint.FileStore); ok {
		fs.SetLogger(logger.Default)
	}

	exec, closeExec, err := buildExecutor(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeExec()

	campaign, err := fuzzing.NewCampaign(cfg, exec, store)
	if err != nil {
		return err
	}
	campaign.SetLogger(logger.Default)

	if cfg.Status.Addr != "" {
		srv := statusd.NewServer(cfg.Status.Addr, campaign)
		go func() {
			logger.Info("Status server listening", "addr", cfg.Status.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Status server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Status server shutdown error", "error", err)
			}
		}()
	}

	res, runErr := campaign.Run(ctx)
	interrupted := runErr != nil && ctx.Err() != nil
	if res == nil || (runErr != nil && !interrupted) {
		return runErr
	}
	if interrupted {
		logger.Warn("Campaign interrupted, checkpoint saved", "result_dir", cfg.Campaign.ResultDir)
	}

	if err := report.Export(cfg.Campaign.ResultDir, res.Population, res.Findings); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}

	snap := campaign.Snapshot()
	fmt.Fprint(cmd.OutOrStdout(), report.Render(report.Summary{
		CampaignID:   snap.CampaignID,
		State:        string(snap.State),
		CurrentRound: snap.CurrentRound,
		SeedIndex:    snap.CurrentSeedIndex,
		Population:   res.Population,
		Executed:     snap.InitialExecuted,
		Findings:     res.Findings,
		Stats:        res.Stats,
	}))
	if interrupted {
		return runErr
	}
	return nil
}
