package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AnalyzeMethod is the full gRPC method name of the batch analysis call.
const AnalyzeMethod = "/reviewintel.v1.ReviewIntelligence/Analyze"

// ReviewIntelligenceServer analyses a batch of reviews. Requests and responses
// travel as google.protobuf.Struct documents; see FromProtoAnalysisRequest and
// ToProtoReport for their shape.
type ReviewIntelligenceServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes reviewintel.v1.ReviewIntelligence.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "reviewintel.v1.ReviewIntelligence",
	HandlerType: (*ReviewIntelligenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reviewintel/v1/review_intelligence.proto",
}

// RegisterReviewIntelligenceServer attaches srv to s.
func RegisterReviewIntelligenceServer(s grpc.ServiceRegistrar, srv ReviewIntelligenceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func analyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewIntelligenceServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AnalyzeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReviewIntelligenceServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ReviewIntelligenceClient calls a remote ReviewIntelligence service.
type ReviewIntelligenceClient struct {
	cc grpc.ClientConnInterface
}

// NewReviewIntelligenceClient wraps a client connection.
func NewReviewIntelligenceClient(cc grpc.ClientConnInterface) *ReviewIntelligenceClient {
	return &ReviewIntelligenceClient{cc: cc}
}

// Analyze invokes the remote analysis.
func (c *ReviewIntelligenceClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AnalyzeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
