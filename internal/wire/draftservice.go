package wire

import (
	"context"

	"google.golang.org/grpc"
)

// DraftServiceServer is the set of RPCs the draft worker exposes. The
// method set and the ServiceDesc below are hand-authored in the shape
// protoc-gen-go-grpc would emit from a .proto file; see DESIGN.md for why
// no generated package is used here.
type DraftServiceServer interface {
	LoadModel(context.Context, *LoadModelRequest) (*Ack, error)
	StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error)
	GenerateDraft(context.Context, *GenerateDraftRequest) (*GenerateDraftResponse, error)
	GetSnapshotDistribution(context.Context, *SnapshotDistributionRequest) (*SnapshotDistributionResponse, error)
	UpdateDraftContext(context.Context, *UpdateDraftContextRequest) (*Ack, error)
	EndSession(context.Context, *StartSessionRequest) (*Ack, error)
}

type DraftServiceClient interface {
	LoadModel(ctx context.Context, in *LoadModelRequest, opts ...grpc.CallOption) (*Ack, error)
	StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error)
	GenerateDraft(ctx context.Context, in *GenerateDraftRequest, opts ...grpc.CallOption) (*GenerateDraftResponse, error)
	GetSnapshotDistribution(ctx context.Context, in *SnapshotDistributionRequest, opts ...grpc.CallOption) (*SnapshotDistributionResponse, error)
	UpdateDraftContext(ctx context.Context, in *UpdateDraftContextRequest, opts ...grpc.CallOption) (*Ack, error)
	EndSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*Ack, error)
}

type draftServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDraftServiceClient wraps cc, invoking every method with the "json"
// content-subtype registered in codec.go.
func NewDraftServiceClient(cc grpc.ClientConnInterface) DraftServiceClient {
	return &draftServiceClient{cc: cc}
}

func (c *draftServiceClient) LoadModel(ctx context.Context, in *LoadModelRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.DraftService/LoadModel", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *draftServiceClient) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error) {
	out := new(StartSessionResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.DraftService/StartSession", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *draftServiceClient) GenerateDraft(ctx context.Context, in *GenerateDraftRequest, opts ...grpc.CallOption) (*GenerateDraftResponse, error) {
	out := new(GenerateDraftResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.DraftService/GenerateDraft", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *draftServiceClient) GetSnapshotDistribution(ctx context.Context, in *SnapshotDistributionRequest, opts ...grpc.CallOption) (*SnapshotDistributionResponse, error) {
	out := new(SnapshotDistributionResponse)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.DraftService/GetSnapshotDistribution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *draftServiceClient) UpdateDraftContext(ctx context.Context, in *UpdateDraftContextRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.DraftService/UpdateDraftContext", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *draftServiceClient) EndSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append(opts, grpc.CallContentSubtype("json"))
	if err := c.cc.Invoke(ctx, "/wire.DraftService/EndSession", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _DraftService_LoadModel_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoadModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DraftServiceServer).LoadModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.DraftService/LoadModel"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DraftServiceServer).LoadModel(ctx, req.(*LoadModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DraftService_StartSession_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DraftServiceServer).StartSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.DraftService/StartSession"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DraftServiceServer).StartSession(ctx, req.(*StartSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DraftService_GenerateDraft_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GenerateDraftRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DraftServiceServer).GenerateDraft(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.DraftService/GenerateDraft"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DraftServiceServer).GenerateDraft(ctx, req.(*GenerateDraftRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DraftService_GetSnapshotDistribution_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SnapshotDistributionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DraftServiceServer).GetSnapshotDistribution(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.DraftService/GetSnapshotDistribution"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DraftServiceServer).GetSnapshotDistribution(ctx, req.(*SnapshotDistributionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DraftService_UpdateDraftContext_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateDraftContextRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DraftServiceServer).UpdateDraftContext(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.DraftService/UpdateDraftContext"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DraftServiceServer).UpdateDraftContext(ctx, req.(*UpdateDraftContextRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DraftService_EndSession_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DraftServiceServer).EndSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/wire.DraftService/EndSession"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DraftServiceServer).EndSession(ctx, req.(*StartSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// DraftService_ServiceDesc is the grpc.ServiceDesc a protoc plugin would
// generate for a draft_service.proto defining these six RPCs.
var DraftService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wire.DraftService",
	HandlerType: (*DraftServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LoadModel", Handler: _DraftService_LoadModel_Handler},
		{MethodName: "StartSession", Handler: _DraftService_StartSession_Handler},
		{MethodName: "GenerateDraft", Handler: _DraftService_GenerateDraft_Handler},
		{MethodName: "GetSnapshotDistribution", Handler: _DraftService_GetSnapshotDistribution_Handler},
		{MethodName: "UpdateDraftContext", Handler: _DraftService_UpdateDraftContext_Handler},
		{MethodName: "EndSession", Handler: _DraftService_EndSession_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wire/draftservice.proto",
}

func RegisterDraftServiceServer(s grpc.ServiceRegistrar, srv DraftServiceServer) {
	s.RegisterService(&DraftService_ServiceDesc, srv)
}
