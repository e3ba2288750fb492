package derivesvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "knave.v1.DeriveService"

// Full method names.
const (
	DeriveMethod       = "/" + ServiceName + "/Derive"
	DeriveStoredMethod = "/" + ServiceName + "/DeriveStored"
)

// DeriveServiceServer is the server API for the derive service. Requests and
// responses are free-form structs; see Service for their fields.
type DeriveServiceServer interface {
	Derive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeriveStored(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterDeriveServiceServer registers srv on s.
func RegisterDeriveServiceServer(s grpc.ServiceRegistrar, srv DeriveServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the derive service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeriveServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Derive", Handler: unaryHandler(DeriveMethod, DeriveServiceServer.Derive)},
		{MethodName: "DeriveStored", Handler: unaryHandler(DeriveStoredMethod, DeriveServiceServer.DeriveStored)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "knave/v1/derive.proto",
}

type unaryMethod func(DeriveServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DeriveServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DeriveServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls a remote derive service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Derive calls DeriveService.Derive.
func (c *Client) Derive(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DeriveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeriveStored calls DeriveService.DeriveStored.
func (c *Client) DeriveStored(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DeriveStoredMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
