package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/impact-simulator/model"
)

const ServiceName = "impact.v1.SimulationService"

const (
	FullMethodSimulate         = "/" + ServiceName + "/Simulate"
	FullMethodListPresets      = "/" + ServiceName + "/ListPresets"
	FullMethodGetPreset        = "/" + ServiceName + "/GetPreset"
	FullMethodStreamTrajectory = "/" + ServiceName + "/StreamTrajectory"
)

// SimulationServiceServer is the server API for the simulation service.
type SimulationServiceServer interface {
	Simulate(context.Context, *SimulateRequest) (*model.SimulationResult, error)
	ListPresets(context.Context, *emptypb.Empty) (*ListPresetsResponse, error)
	GetPreset(context.Context, *GetPresetRequest) (*model.Preset, error)
	StreamTrajectory(*StreamTrajectoryRequest, grpc.ServerStreamingServer[ReplayFrame]) error
}

// RegisterSimulationServiceServer attaches srv to s.
func RegisterSimulationServiceServer(s grpc.ServiceRegistrar, srv SimulationServiceServer) {
	s.RegisterService(&SimulationServiceDesc, srv)
}

func simulateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SimulateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationServiceServer).Simulate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodSimulate}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulationServiceServer).Simulate(ctx, req.(*SimulateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listPresetsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationServiceServer).ListPresets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodListPresets}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulationServiceServer).ListPresets(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getPresetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetPresetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationServiceServer).GetPreset(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodGetPreset}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulationServiceServer).GetPreset(ctx, req.(*GetPresetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamTrajectoryHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamTrajectoryRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SimulationServiceServer).StreamTrajectory(in, &grpc.GenericServerStream[StreamTrajectoryRequest, ReplayFrame]{ServerStream: stream})
}

// SimulationServiceDesc describes the service for grpc.Server.RegisterService.
var SimulationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Simulate", Handler: simulateHandler},
		{MethodName: "ListPresets", Handler: listPresetsHandler},
		{MethodName: "GetPreset", Handler: getPresetHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamTrajectory",
			Handler:       streamTrajectoryHandler,
			ServerStreams: true,
		},
	},
	Metadata: "impact/v1/simulation.json",
}

// SimulationServiceClient is a client for the simulation service. Every call
// uses the JSON codec.
type SimulationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSimulationServiceClient(cc grpc.ClientConnInterface) *SimulationServiceClient {
	return &SimulationServiceClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *SimulationServiceClient) Simulate(ctx context.Context, in *SimulateRequest, opts ...grpc.CallOption) (*model.SimulationResult, error) {
	out := new(model.SimulationResult)
	if err := c.cc.Invoke(ctx, FullMethodSimulate, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulationServiceClient) ListPresets(ctx context.Context, opts ...grpc.CallOption) (*ListPresetsResponse, error) {
	out := new(ListPresetsResponse)
	if err := c.cc.Invoke(ctx, FullMethodListPresets, &emptypb.Empty{}, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulationServiceClient) GetPreset(ctx context.Context, in *GetPresetRequest, opts ...grpc.CallOption) (*model.Preset, error) {
	out := new(model.Preset)
	if err := c.cc.Invoke(ctx, FullMethodGetPreset, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulationServiceClient) StreamTrajectory(ctx context.Context, in *StreamTrajectoryRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ReplayFrame], error) {
	stream, err := c.cc.NewStream(ctx, &SimulationServiceDesc.Streams[0], FullMethodStreamTrajectory, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamTrajectoryRequest, ReplayFrame]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
