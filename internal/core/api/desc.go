package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "editcheck.v1.Validation"

// Full method names.
const (
	ResolveRulesMethod    = "/" + ServiceName + "/ResolveRules"
	CheckSubmissionMethod = "/" + ServiceName + "/CheckSubmission"
	StreamReportMethod    = "/" + ServiceName + "/StreamReport"
	ConvertTextMethod     = "/" + ServiceName + "/ConvertText"
)

// ValidationServer is the server API for the Validation service.
// Messages are protobuf well-known types so no generated code is needed:
// submissions and results travel as structpb.Struct and report chunks as
// wrapperspb.StringValue.
type ValidationServer interface {
	ResolveRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckSubmission(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamReport(*structpb.Struct, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
	ConvertText(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterValidationServer registers srv on s.
func RegisterValidationServer(s grpc.ServiceRegistrar, srv ValidationServer) {
	s.RegisterService(&ValidationServiceDesc, srv)
}

// ValidationServiceDesc describes the Validation service for grpc.Server.
var ValidationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ValidationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ResolveRules", Handler: unaryHandler(ResolveRulesMethod, ValidationServer.ResolveRules)},
		{MethodName: "CheckSubmission", Handler: unaryHandler(CheckSubmissionMethod, ValidationServer.CheckSubmission)},
		{MethodName: "ConvertText", Handler: unaryHandler(ConvertTextMethod, ValidationServer.ConvertText)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamReport", Handler: streamReportHandler, ServerStreams: true},
	},
	Metadata: "editcheck/v1/validation.proto",
}

type unaryMethod func(ValidationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(ValidationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(ValidationServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamReportHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ValidationServer).StreamReport(in, &grpc.GenericServerStream[structpb.Struct, wrapperspb.StringValue]{ServerStream: stream})
}

// ValidationClient is the client API for the Validation service.
type ValidationClient interface {
	ResolveRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CheckSubmission(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	StreamReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error)
	ConvertText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type validationClient struct {
	cc grpc.ClientConnInterface
}

func NewValidationClient(cc grpc.ClientConnInterface) ValidationClient {
	return &validationClient{cc: cc}
}

func (c *validationClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *validationClient) ResolveRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResolveRulesMethod, in, opts)
}

func (c *validationClient) CheckSubmission(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CheckSubmissionMethod, in, opts)
}

func (c *validationClient) ConvertText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ConvertTextMethod, in, opts)
}

func (c *validationClient) StreamReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	stream, err := c.cc.NewStream(ctx, &ValidationServiceDesc.Streams[0], StreamReportMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, wrapperspb.StringValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
