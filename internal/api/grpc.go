package api

import (
	"bytes"
	"context"

	"FlowSpectra/internal/engine/extractor"
	"FlowSpectra/internal/output"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// FeatureServiceName is the fully qualified gRPC service name.
	FeatureServiceName = "flowspectra.v1.FeatureService"
	extractMethod      = "/" + FeatureServiceName + "/Extract"

	// CaptureNameKey is the request metadata key naming the uploaded capture.
	CaptureNameKey = "capture-name"
)

// FeatureServiceServer is the server API for the feature service.
type FeatureServiceServer interface {
	Extract(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// FeatureServiceDesc describes the feature service. The messages are
// well-known types, so no generated code is needed.
var FeatureServiceDesc = grpc.ServiceDesc{
	ServiceName: FeatureServiceName,
	HandlerType: (*FeatureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Extract",
			Handler:    extractHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flowspectra/v1/feature.proto",
}

func extractHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FeatureServiceServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: extractMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FeatureServiceServer).Extract(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// FeatureServer implements FeatureServiceServer on top of an extractor.
type FeatureServer struct {
	extractor *extractor.Extractor
}

// NewFeatureServer creates the gRPC feature service.
func NewFeatureServer(ex *extractor.Extractor) *FeatureServer {
	return &FeatureServer{extractor: ex}
}

// Extract computes the feature vector of the capture carried in req.
func (s *FeatureServer) Extract(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty capture")
	}
	name := "upload"
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(CaptureNameKey); len(v) > 0 && v[0] != "" {
			name = v[0]
		}
	}
	log.Printf("Received Extract request for %s (%d bytes)", name, len(req.GetValue()))

	rec := s.extractor.ExtractReader(ctx, name, bytes.NewReader(req.GetValue()))
	if rec.Failed() {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Errorf(codes.InvalidArgument, "failed to extract features: %v", rec.Err)
	}
	resp, err := output.NewRecordMessage(rec, s.extractor.Columns()).Struct()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// NewGRPCServer creates a gRPC server with the feature and health services registered.
func NewGRPCServer(ex *extractor.Extractor, maxRecvBytes int) *grpc.Server {
	var opts []grpc.ServerOption
	if maxRecvBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxRecvBytes))
	}
	s := grpc.NewServer(opts...)
	s.RegisterService(&FeatureServiceDesc, NewFeatureServer(ex))

	hs := health.NewServer()
	hs.SetServingStatus(FeatureServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// FeatureClient calls the feature service.
type FeatureClient struct {
	cc grpc.ClientConnInterface
}

// NewFeatureClient wraps a client connection.
func NewFeatureClient(cc grpc.ClientConnInterface) *FeatureClient {
	return &FeatureClient{cc: cc}
}

// Extract sends a capture and returns the feature record struct.
func (c *FeatureClient) Extract(ctx context.Context, name string, capture []byte, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if name != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, CaptureNameKey, name)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractMethod, wrapperspb.Bytes(capture), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
