// Command scenfuzz is a guided collision fuzzer for two-agent driving scenarios.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, os.Stdout, os.Stderr)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	switch {
	case errors.Is(err, context.Canceled):
		os.Exit(130)
	case errors.Is(err, checkpoint.ErrMalformedState):
		os.Exit(3)
	default:
		os.Exit(1)
	}
}
