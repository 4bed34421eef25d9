package executor

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
)

// ServiceName is the gRPC service a scenario bridge exposes
const ServiceName = "scenario.v1.ScenarioExecutor"

const executeMethod = "/" + ServiceName + "/Execute"

// ScenarioServer is the server side of the scenario bridge
type ScenarioServer interface {
	Execute(ctx context.Context, seed *structpb.Struct) (*structpb.Struct, error)
}

var scenarioServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScenarioServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scenario/v1/executor.proto",
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScenarioServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScenarioServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterScenarioServer registers srv on a gRPC server
func RegisterScenarioServer(s grpc.ServiceRegistrar, srv ScenarioServer) {
	s.RegisterService(&scenarioServiceDesc, srv)
}

// ScenarioGRPCServer serves a Runner over gRPC
type ScenarioGRPCServer struct {
	runner Runner
}

// NewScenarioGRPCServer creates a server backed by runner
func NewScenarioGRPCServer(runner Runner) *ScenarioGRPCServer {
	return &ScenarioGRPCServer{runner: runner}
}

func (s *ScenarioGRPCServer) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil || len(req.GetFields()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "seed is required")
	}
	seed, err := SeedFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !seed.Resolved() {
		return nil, status.Error(codes.InvalidArgument, "p_ego, p_npc and v_npc are required")
	}

	ep, err := s.runner.Run(ctx, seed)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, status.Error(codes.Canceled, err.Error())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := EpisodeToStruct(ep)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	logger.Debug("episode served", "round_id", seed.RoundID, "result", ep.Result)
	return out, nil
}

// NewGRPCServer builds a gRPC server exposing runner and the standard health
// service, which reports the scenario service as SERVING.
func NewGRPCServer(runner Runner, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(opts...)
	RegisterScenarioServer(srv, NewScenarioGRPCServer(runner))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}
