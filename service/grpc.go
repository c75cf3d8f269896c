package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/rdfc/internal/rpcutil"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xdao.rdfc.service.v1.Canonicalizer"

var (
	methodCanonize = rpcutil.Method(ServiceName, "Canonize")
	methodDigest   = rpcutil.Method(ServiceName, "Digest")
)

// CanonicalizerServer is the server API for the Canonicalizer service.
//
// Requests carry an N-Quads document as BytesValue. Canonize replies with the
// canonical document, Digest with the CID string of the canonical document.
type CanonicalizerServer interface {
	Canonize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Digest(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
}

// UnimplementedCanonicalizerServer can be embedded to have forward compatible implementations.
type UnimplementedCanonicalizerServer struct{}

func (UnimplementedCanonicalizerServer) Canonize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Canonize not implemented")
}
func (UnimplementedCanonicalizerServer) Digest(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Digest not implemented")
}

// RegisterCanonicalizerServer registers the Canonicalizer service on a gRPC server.
func RegisterCanonicalizerServer(s grpc.ServiceRegistrar, srv CanonicalizerServer) {
	s.RegisterService(&Canonicalizer_ServiceDesc, srv)
}

// CanonicalizerClient is the client API for the Canonicalizer service.
type CanonicalizerClient interface {
	Canonize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Digest(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type canonicalizerClient struct{ cc grpc.ClientConnInterface }

func NewCanonicalizerClient(cc grpc.ClientConnInterface) CanonicalizerClient {
	return &canonicalizerClient{cc: cc}
}

func (c *canonicalizerClient) Canonize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return rpcutil.Invoke[wrapperspb.BytesValue](ctx, c.cc, methodCanonize, in, opts...)
}

func (c *canonicalizerClient) Digest(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return rpcutil.Invoke[wrapperspb.StringValue](ctx, c.cc, methodDigest, in, opts...)
}

// Canonicalizer_ServiceDesc is the grpc.ServiceDesc for the Canonicalizer service.
var Canonicalizer_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CanonicalizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Canonize", Handler: rpcutil.Unary(methodCanonize, CanonicalizerServer.Canonize)},
		{MethodName: "Digest", Handler: rpcutil.Unary(methodDigest, CanonicalizerServer.Digest)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "canonicalizer.proto",
}
