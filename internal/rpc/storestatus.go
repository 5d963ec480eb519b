// Package rpc defines the hotfoods.StoreStatus gRPC service. Its messages are
// protobuf well-known types: requests without fields are Empty, and status
// payloads and partial updates travel as Struct values carrying the same
// JSON field names as the REST API.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// StoreStatusService is the fully qualified service name. The health server
// reports under the same name.
const StoreStatusService = "hotfoods.StoreStatus"

// Full method names.
const (
	GetStatusMethod    = "/" + StoreStatusService + "/GetStatus"
	UpdateStatusMethod = "/" + StoreStatusService + "/UpdateStatus"
	WatchStatusMethod  = "/" + StoreStatusService + "/WatchStatus"
)

// StoreStatusServer is the server API for the StoreStatus service.
type StoreStatusServer interface {
	// GetStatus returns the current status payload.
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// UpdateStatus applies a partial store config update and returns the
	// resulting status payload.
	UpdateStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// WatchStatus streams the current status, then one message per change.
	WatchStatus(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterStoreStatusServer registers srv on s.
func RegisterStoreStatusServer(s grpc.ServiceRegistrar, srv StoreStatusServer) {
	s.RegisterService(&StoreStatusServiceDesc, srv)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreStatusServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreStatusServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func updateStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreStatusServer).UpdateStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UpdateStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreStatusServer).UpdateStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func watchStatusHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StoreStatusServer).WatchStatus(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// StoreStatusServiceDesc is the grpc.ServiceDesc for the StoreStatus service.
var StoreStatusServiceDesc = grpc.ServiceDesc{
	ServiceName: StoreStatusService,
	HandlerType: (*StoreStatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "UpdateStatus", Handler: updateStatusHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchStatus", Handler: watchStatusHandler, ServerStreams: true},
	},
	Metadata: "hotfoods/store_status.proto",
}

// StoreStatusClient is the client API for the StoreStatus service.
type StoreStatusClient struct {
	cc grpc.ClientConnInterface
}

func NewStoreStatusClient(cc grpc.ClientConnInterface) *StoreStatusClient {
	return &StoreStatusClient{cc: cc}
}

func (c *StoreStatusClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreStatusClient) UpdateStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, UpdateStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreStatusClient) WatchStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &StoreStatusServiceDesc.Streams[0], WatchStatusMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
