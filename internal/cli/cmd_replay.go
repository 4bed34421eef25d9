package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/executor"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

func newReplayCmd(global *GlobalOpts) *cobra.Command {
	var (
		pEgo, pNpc, vNpc float64
		capability       int
		actionSpecs      []string
		executorKind     string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Execute a single seed and print its outcome",
		Long: `Execute one seed through the configured executor and print its outcome.
Parameters that are not given are drawn as whole numbers inside the configured
ranges. Actions are given as tick:kind, e.g. --action 40:acc --action 90:lane.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			if executorKind != "" {
				cfg.Executor.Kind = executorKind
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid flags: %w", err)
				}
			}

			chain, err := parseActions(actionSpecs)
			if err != nil {
				return err
			}
			seed := &models.Seed{ActionCapability: capability, ActionChain: chain}
			flags := cmd.Flags()
			if flags.Changed("p-ego") {
				seed.PEgo = models.Float(pEgo)
			}
			if flags.Changed("p-npc") {
				seed.PNpc = models.Float(pNpc)
			}
			if flags.Changed("v-npc") {
				seed.VNpc = models.Float(vNpc)
			}
			resolveSeed(seed, cfg)

			ctx := cmd.Context()
			exec, closeExec, err := buildExecutor(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeExec()

			runTimeout, err := cfg.Executor.GetRunTimeout()
			if err != nil {
				return err
			}
			out, err := executor.NewSafe(exec, runTimeout).Execute(ctx, seed)
			if err != nil {
				return err
			}
			if err := seed.Attach(out); err != nil {
				return err
			}
			return printOutcome(cmd, seed)
		},
	}

	cmd.Flags().Float64Var(&pEgo, "p-ego", 0, "ego spawn offset (drawn when unset)")
	cmd.Flags().Float64Var(&pNpc, "p-npc", 0, "NPC spawn offset (drawn when unset)")
	cmd.Flags().Float64Var(&vNpc, "v-npc", 0, "NPC speed in km/h (drawn when unset)")
	cmd.Flags().IntVar(&capability, "action-cap", 0, "spontaneous actions the executor may inject")
	cmd.Flags().StringArrayVar(&actionSpecs, "action", nil, "scripted action as tick:kind (repeatable)")
	cmd.Flags().StringVar(&executorKind, "executor", "", "scenario executor (kinematic, remote)")
	return cmd
}

// resolveSeed draws the unset parameters from the configured ranges
func resolveSeed(seed *models.Seed, cfg *config.Config) {
	rng := utils.NewRandSource(cfg.Campaign.RNGSeed)
	p := cfg.Parameters
	seed.ResolveDefaults(rng, p.PEgo.Bounds(), p.PNpc.Bounds(), p.VNpc.Bounds())
}

// parseActions parses tick:kind pairs into a sorted chain
func parseActions(specs []string) (models.ActionChain, error) {
	actions := make([]models.ScriptedAction, 0, len(specs))
	for _, spec := range specs {
		tickStr, kindStr, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid action %q (want tick:kind)", spec)
		}
		tick, err := strconv.Atoi(strings.TrimSpace(tickStr))
		if err != nil || tick < 0 {
			return nil, fmt.Errorf("invalid action tick %q", tickStr)
		}
		kind, err := models.ParseActionKind(strings.TrimSpace(kindStr))
		if err != nil {
			return nil, err
		}
		actions = append(actions, models.ScriptedAction{Tick: tick, Action: kind})
	}
	return models.ActionChain(nil).Merge(actions...), nil
}

func printOutcome(cmd *cobra.Command, seed *models.Seed) error {
	out := cmd.OutOrStdout()
	o := seed.Outcome
	fmt.Fprintf(out, "p_ego=%g p_npc=%g v_npc=%g action_cap=%d\n", *seed.PEgo, *seed.PNpc, *seed.VNpc, seed.ActionCapability)
	fmt.Fprintf(out, "result: %s\n", o.Result)
	fmt.Fprintf(out, "loss: %s\n", formatFloat(o.Loss.Value()))
	fmt.Fprintf(out, "min distance: %s (tick %d)\n", formatFloat(o.MinDistance.Value), o.MinDistance.Index)
	if cp := o.ConflictPoint; cp != nil {
		fmt.Fprintf(out, "conflict point: ego tick %d, npc tick %d\n", cp.EgoPassIndex, cp.ObjPassIndex)
	}
	for _, a := range o.ActionSequence {
		fmt.Fprintf(out, "action: %s at tick %d for %d ticks\n", a.Action, a.Tick, a.Duration)
	}
	return nil
}

func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
