package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/utils"
)

// Remote runs episodes on an external simulator bridge over gRPC
type Remote struct {
	conn    *grpc.ClientConn
	health  healthpb.HealthClient
	backoff utils.BackoffStrategy
	logger  *slog.Logger
}

// Dial creates a client for the bridge at address. No connection is made
// until the first call.
func Dial(address string, opts ...grpc.DialOption) (*Remote, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial scenario bridge %s: %w", address, err)
	}
	return NewRemote(conn), nil
}

// NewRemote wraps an existing client connection
func NewRemote(conn *grpc.ClientConn) *Remote {
	return &Remote{
		conn:    conn,
		health:  healthpb.NewHealthClient(conn),
		backoff: utils.NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 2),
		logger:  logger.Default,
	}
}

// SetLogger sets the client's logger
func (r *Remote) SetLogger(l *slog.Logger) {
	r.logger = l
}

// SetBackoff sets the polling strategy used by WaitReady
func (r *Remote) SetBackoff(b utils.BackoffStrategy) {
	r.backoff = b
}

// WaitReady polls the bridge's health service until it reports SERVING.
// A non-positive timeout waits until ctx is done.
func (r *Remote) WaitReady(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for attempt := 0; ; attempt++ {
		resp, err := r.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			r.logger.Info("Scenario bridge ready", "target", r.conn.Target(), "attempts", attempt+1)
			return nil
		}
		delay := r.backoff.NextDelay(attempt)
		r.logger.Debug("Scenario bridge not ready", "attempt", attempt, "retry_in", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("scenario bridge not ready: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// Run sends the seed to the bridge and decodes the returned episode
func (r *Remote) Run(ctx context.Context, seed *models.Seed) (*models.Episode, error) {
	in, err := SeedToStruct(seed)
	if err != nil {
		return nil, fmt.Errorf("encode seed %d: %w", seed.RoundID, err)
	}
	out := new(structpb.Struct)
	if err := r.conn.Invoke(ctx, executeMethod, in, out); err != nil {
		return nil, fmt.Errorf("execute seed %d: %w", seed.RoundID, err)
	}
	ep, err := EpisodeFromStruct(out)
	if err != nil {
		return nil, fmt.Errorf("decode episode %d: %w", seed.RoundID, err)
	}
	return ep, nil
}

// Close closes the connection
func (r *Remote) Close() error {
	return r.conn.Close()
}
