package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/executor"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/sim"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
)

func newServeSimCmd(global *GlobalOpts) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-sim",
		Short: "Serve the kinematic reference world over gRPC",
		Long: `Serve the in-process kinematic world as a scenario bridge, so that
"scenfuzz run --executor remote" can be exercised end to end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			world := sim.New(cfg.Executor.Kinematic, cfg.Campaign.RNGSeed)
			world.SetLogger(logger.Default)

			grpcServer, hs := executor.NewGRPCServer(world)
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Scenario bridge listening", "addr", lis.Addr().String())
				errCh <- grpcServer.Serve(lis)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutdown requested")
				hs.Shutdown()
				grpcServer.GracefulStop()
				return nil
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":50061", "gRPC listen address")
	return cmd
}
