package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/report"
)

func newReportCmd(global *GlobalOpts) *cobra.Command {
	var resultDir, store string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise a campaign from its checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			if resultDir != "" {
				cfg.Campaign.ResultDir = resultDir
			}
			if store != "" {
				cfg.Campaign.Store = store
			}
			ctx := cmd.Context()

			st, err := checkpoint.NewStore(cfg.Campaign.Store, cfg.Campaign.ResultDir, cfg.Campaign.SQLitePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Init(ctx); err != nil {
				return err
			}

			summary := report.Summary{State: "not started"}
			pop, ok, err := st.LoadPopulation(ctx)
			if err != nil {
				return err
			}
			if ok {
				summary.Population = pop.Seeds
				summary.Executed = pop.Executed
				summary.State = "initial sweep done"
			} else if initial, err := st.LoadInitial(ctx); err != nil {
				return err
			} else if len(initial) > 0 {
				summary.Executed = len(initial)
				summary.CurrentRound = len(initial)
				summary.State = "initial sweep in progress"
			}

			progress, ok, err := st.LoadProgress(ctx)
			if err != nil {
				return err
			}
			if ok {
				summary.CampaignID = progress.CampaignID
				summary.CurrentRound = progress.CurrentRound
				summary.SeedIndex = progress.CurrentSeedIndex
				summary.State = "guided search"
				if progress.CurrentSeedIndex >= len(summary.Population) {
					summary.State = "done"
				}
			}

			findings, err := st.LoadFindings(ctx)
			if err != nil {
				return err
			}
			summary.Findings = findings

			fmt.Fprint(cmd.OutOrStdout(), report.Render(summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&resultDir, "result-dir", "", "directory holding the checkpoint")
	cmd.Flags().StringVar(&store, "store", "", "checkpoint backend (file, sqlite)")
	return cmd
}
