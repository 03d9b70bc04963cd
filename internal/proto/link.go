package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	ServiceName              = "shortlink.LinkService"
	LinkServiceShortenMethod = "/shortlink.LinkService/Shorten"
	LinkServiceModelMethod   = "/shortlink.LinkService/ModelStatus"
)

type ShortenRequest struct {
	LongUrl string `json:"long_url"`
	Domain  string `json:"domain,omitempty"`
}

type SimilarityVerdict struct {
	Score     float64 `json:"score"`
	IsSimilar bool    `json:"is_similar"`
	Message   string  `json:"message"`
}

type ShortenResponse struct {
	Id               string             `json:"id"`
	ShortLink        string             `json:"short_link"`
	QrCode           string             `json:"qr_code,omitempty"`
	Similarity       *SimilarityVerdict `json:"similarity,omitempty"`
	SimilarityStatus string             `json:"similarity_status"`
}

type ModelStatusResponse struct {
	Backend    string `json:"backend"`
	Model      string `json:"model"`
	State      string `json:"state"`
	Dimensions int32  `json:"dimensions"`
	Error      string `json:"error,omitempty"`
}

// LinkServiceServer is the server API for LinkService service.
type LinkServiceServer interface {
	Shorten(context.Context, *ShortenRequest) (*ShortenResponse, error)
	ModelStatus(context.Context, *emptypb.Empty) (*ModelStatusResponse, error)
}

// UnimplementedLinkServiceServer can be embedded to have forward compatible implementations.
type UnimplementedLinkServiceServer struct{}

func (UnimplementedLinkServiceServer) Shorten(context.Context, *ShortenRequest) (*ShortenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Shorten not implemented")
}
func (UnimplementedLinkServiceServer) ModelStatus(context.Context, *emptypb.Empty) (*ModelStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ModelStatus not implemented")
}

func RegisterLinkServiceServer(s grpc.ServiceRegistrar, srv LinkServiceServer) {
	s.RegisterService(&_LinkService_serviceDesc, srv)
}

func _LinkService_Shorten_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ShortenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinkServiceServer).Shorten(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LinkServiceShortenMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LinkServiceServer).Shorten(ctx, req.(*ShortenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LinkService_ModelStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinkServiceServer).ModelStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LinkServiceModelMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LinkServiceServer).ModelStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var _LinkService_serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shorten",
			Handler:    _LinkService_Shorten_Handler,
		},
		{
			MethodName: "ModelStatus",
			Handler:    _LinkService_ModelStatus_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortlink.proto",
}

// LinkServiceClient is the client API for LinkService service.
type LinkServiceClient interface {
	Shorten(ctx context.Context, in *ShortenRequest, opts ...grpc.CallOption) (*ShortenResponse, error)
	ModelStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ModelStatusResponse, error)
}

type linkServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLinkServiceClient returns a client that sends every call with the JSON codec.
func NewLinkServiceClient(cc grpc.ClientConnInterface) LinkServiceClient {
	return &linkServiceClient{cc: cc}
}

func (c *linkServiceClient) Shorten(ctx context.Context, in *ShortenRequest, opts ...grpc.CallOption) (*ShortenResponse, error) {
	out := new(ShortenResponse)
	if err := c.cc.Invoke(ctx, LinkServiceShortenMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *linkServiceClient) ModelStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ModelStatusResponse, error) {
	out := new(ModelStatusResponse)
	if err := c.cc.Invoke(ctx, LinkServiceModelMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
