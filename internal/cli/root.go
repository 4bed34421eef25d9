// Package cli provides the cobra command tree for scenfuzz.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

// GlobalOpts holds the persistent flags shared by every subcommand
type GlobalOpts struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// NewRootCmd creates the root cobra command for scenfuzz.
func NewRootCmd() *cobra.Command {
	opts := &GlobalOpts{}

	rootCmd := &cobra.Command{
		Use:   "scenfuzz",
		Short: "Guided collision fuzzer for two-agent driving scenarios",
		Long: `scenfuzz - guided collision fuzzer for two-agent driving scenarios

scenfuzz sweeps a grid of initial ego/NPC parameters, then hill-climbs from
every non-colliding seed, mutating positions, speed and scripted NPC actions
towards the conflict point until the two vehicles collide. Campaigns are
checkpointed after every unit of work and resume where they stopped.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to the campaign config (YAML)")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text, json)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newRunCmd(opts),
		newSeedsCmd(opts),
		newReportCmd(opts),
		newServeSimCmd(opts),
		newReplayCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
func Execute(ctx context.Context, stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the config file, or the defaults when none is given, and
// applies the global flag overrides. The default logger is configured from
// the result and writes to stderr.
func (o *GlobalOpts) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.LoadConfig(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.SetDefault(logger.NewFormat(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr()))
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print scenfuzz version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scenfuzz %s\n", Version)
			return nil
		},
	}
}
