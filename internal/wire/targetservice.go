package wire

import (
	"context"

	"google.golang.org/grpc"
)

// TargetServiceServer is the set of RPCs the target worker exposes.
type TargetServiceServer interface {
	LoadModel(context.Context, *LoadModelRequest) (*Ack, error)
	StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error)
	VerifyBatchTokens(context.Context, *VerifyBatchRequest) (*VerifyBatchResponse, error)
	FinalizeBatchTokens(context.Context, *FinalizeBatchRequest) (*FinalizeBatchResponse, error)
	CheckTokenProbability(context.Context, *CheckTokenRequest) (*CheckTokenResponse, error)
	AppendToken(context.Context, *AppendTokenRequest) (*AppendTokenResponse, error)
	GenerateTargetToken(context.Context, *GenerateTargetRequest) (*GenerateTargetResponse, error)
	EndSession(context.Context, *StartSessionRequest) (*Ack, error)
}

type TargetServiceClient interface {
	LoadModel(ctx context.Context, in *LoadModelRequest, opts ...grpc.CallOption) (*Ack, error)
	StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error)
	VerifyBatchTokens(ctx context.Context, in *VerifyBatchRequest, opts ...grpc.CallOption) (*VerifyBatchResponse, error)
	FinalizeBatchTokens(ctx context.Context, in *FinalizeBatchRequest, opts ...grpc.CallOption) (*FinalizeBatchResponse, error)
	CheckTokenProbability(ctx context.Context, in *CheckTokenRequest, opts ...grpc.CallOption) (*CheckTokenResponse, error)
	AppendToken(ctx context.Context, in *AppendTokenRequest, opts ...grpc.CallOption) (*AppendTokenResponse, error)
	GenerateTargetToken(ctx context.Context, in *GenerateTargetRequest, opts ...grpc.CallOption) (*GenerateTargetResponse, error)
	EndSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*Ack, error)
}

type targetServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTargetServiceClient(cc grpc.ClientConnInterface) TargetServiceClient {
	return &targetServiceClient{cc: cc}
}

func (c *targetServiceClient) LoadModel(ctx context.Context, in *LoadModelRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/LoadModel", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error) {
	out := new(StartSessionResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/StartSession", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) VerifyBatchTokens(ctx context.Context, in *VerifyBatchRequest, opts ...grpc.CallOption) (*VerifyBatchResponse, error) {
	out := new(VerifyBatchResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/VerifyBatchTokens", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) FinalizeBatchTokens(ctx context.Context, in *FinalizeBatchRequest, opts ...grpc.CallOption) (*FinalizeBatchResponse, error) {
	out := new(FinalizeBatchResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/FinalizeBatchTokens", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) CheckTokenProbability(ctx context.Context, in *CheckTokenRequest, opts ...grpc.CallOption) (*CheckTokenResponse, error) {
	out := new(CheckTokenResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/CheckTokenProbability", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) AppendToken(ctx context.Context, in *AppendTokenRequest, opts ...grpc.CallOption) (*AppendTokenResponse, error) {
	out := new(AppendTokenResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/AppendToken", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) GenerateTargetToken(ctx context.Context, in *GenerateTargetRequest, opts ...grpc.CallOption) (*GenerateTargetResponse, error) {
	out := new(GenerateTargetResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/GenerateTargetToken", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *targetServiceClient) EndSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.TargetService/EndSession", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _TargetService_LoadModel_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoadModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).LoadModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/LoadModel"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).LoadModel(ctx, req.(*LoadModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_StartSession_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).StartSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/StartSession"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).StartSession(ctx, req.(*StartSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_VerifyBatchTokens_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(VerifyBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).VerifyBatchTokens(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/VerifyBatchTokens"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).VerifyBatchTokens(ctx, req.(*VerifyBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_FinalizeBatchTokens_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FinalizeBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).FinalizeBatchTokens(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/FinalizeBatchTokens"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).FinalizeBatchTokens(ctx, req.(*FinalizeBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_CheckTokenProbability_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CheckTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).CheckTokenProbability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/CheckTokenProbability"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).CheckTokenProbability(ctx, req.(*CheckTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_AppendToken_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AppendTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).AppendToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/AppendToken"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).AppendToken(ctx, req.(*AppendTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_GenerateTargetToken_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GenerateTargetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).GenerateTargetToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/GenerateTargetToken"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).GenerateTargetToken(ctx, req.(*GenerateTargetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TargetService_EndSession_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TargetServiceServer).EndSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.TargetService/EndSession"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TargetServiceServer).EndSession(ctx, req.(*StartSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// TargetService_ServiceDesc is the grpc.ServiceDesc a protoc plugin would
// generate for a target_service.proto defining these eight RPCs.
var TargetService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wire.TargetService",
	HandlerType: (*TargetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LoadModel", Handler: _TargetService_LoadModel_Handler},
		{MethodName: "StartSession", Handler: _TargetService_StartSession_Handler},
		{MethodName: "VerifyBatchTokens", Handler: _TargetService_VerifyBatchTokens_Handler},
		{MethodName: "FinalizeBatchTokens", Handler: _TargetService_FinalizeBatchTokens_Handler},
		{MethodName: "CheckTokenProbability", Handler: _TargetService_CheckTokenProbability_Handler},
		{MethodName: "AppendToken", Handler: _TargetService_AppendToken_Handler},
		{MethodName: "GenerateTargetToken", Handler: _TargetService_GenerateTargetToken_Handler},
		{MethodName: "EndSession", Handler: _TargetService_EndSession_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wire/targetservice.proto",
}

func RegisterTargetServiceServer(s grpc.ServiceRegistrar, srv TargetServiceServer) {
	s.RegisterService(&TargetService_ServiceDesc, srv)
}
