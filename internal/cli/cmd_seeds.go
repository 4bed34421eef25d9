package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/fuzzing"
)

func newSeedsCmd(global *GlobalOpts) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "Print the initial seed grid",
		Long: `Print the deterministic initial seed grid for the configured parameter
ranges: the bucket centres of each parameter and the seed count. With
--list every seed is printed in execution order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			params := cfg.Parameters

			fmt.Fprintf(out, "p_ego: %v\n", fuzzing.GridValues(params.PEgo))
			fmt.Fprintf(out, "p_npc: %v\n", fuzzing.GridValues(params.PNpc))
			fmt.Fprintf(out, "v_npc: %v\n", fuzzing.GridValues(params.VNpc))

			seeds := fuzzing.GenerateInitialSeeds(params)
			fmt.Fprintf(out, "seeds: %d\n", len(seeds))
			if list {
				for _, s := range seeds {
					fmt.Fprintf(out, "%d\t%g\t%g\t%g\n", s.RoundID, *s.PEgo, *s.PNpc, *s.VNpc)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print every seed")
	return cmd
}
