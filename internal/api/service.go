package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "voicesync.VoiceStore"

	FetchVoicesMethod  = "/" + ServiceName + "/FetchVoices"
	UpsertVoicesMethod = "/" + ServiceName + "/UpsertVoices"
)

// VoiceStoreServer is implemented by the server-side transport.
type VoiceStoreServer interface {
	FetchVoices(ctx context.Context, req *FetchVoicesRequest) (*FetchVoicesResponse, error)
	UpsertVoices(ctx context.Context, req *UpsertVoicesRequest) (*UpsertVoicesResponse, error)
}

// RegisterVoiceStoreServer attaches srv to s.
func RegisterVoiceStoreServer(s grpc.ServiceRegistrar, srv VoiceStoreServer) {
	s.RegisterService(&VoiceStoreServiceDesc, srv)
}

var VoiceStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VoiceStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchVoices", Handler: fetchVoicesHandler},
		{MethodName: "UpsertVoices", Handler: upsertVoicesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voicesync/voicestore",
}

func fetchVoicesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FetchVoicesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VoiceStoreServer).FetchVoices(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FetchVoicesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VoiceStoreServer).FetchVoices(ctx, req.(*FetchVoicesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func upsertVoicesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpsertVoicesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VoiceStoreServer).UpsertVoices(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UpsertVoicesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VoiceStoreServer).UpsertVoices(ctx, req.(*UpsertVoicesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// VoiceStoreClient is the client-side stub.
type VoiceStoreClient interface {
	FetchVoices(ctx context.Context, in *FetchVoicesRequest, opts ...grpc.CallOption) (*FetchVoicesResponse, error)
	UpsertVoices(ctx context.Context, in *UpsertVoicesRequest, opts ...grpc.CallOption) (*UpsertVoicesResponse, error)
}

type voiceStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewVoiceStoreClient(cc grpc.ClientConnInterface) VoiceStoreClient {
	return &voiceStoreClient{cc: cc}
}

func (c *voiceStoreClient) FetchVoices(ctx context.Context, in *FetchVoicesRequest, opts ...grpc.CallOption) (*FetchVoicesResponse, error) {
	out := new(FetchVoicesResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FetchVoicesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *voiceStoreClient) UpsertVoices(ctx context.Context, in *UpsertVoicesRequest, opts ...grpc.CallOption) (*UpsertVoicesResponse, error) {
	out := new(UpsertVoicesResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, UpsertVoicesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
