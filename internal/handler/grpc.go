package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/proto"
	"github.com/MikhailRaia/shortlink/internal/service"
)

type LinkGRPCServer struct {
	proto.UnimplementedLinkServiceServer
	submitter FormSubmitter
	models    ModelReporter
}

func NewLinkGRPCServer(submitter FormSubmitter, models ModelReporter) *LinkGRPCServer {
	return &LinkGRPCServer{
		submitter: submitter,
		models:    models,
	}
}

func (s *LinkGRPCServer) Shorten(ctx context.Context, req *proto.ShortenRequest) (*proto.ShortenResponse, error) {
	sub, err := s.submitter.Submit(ctx, model.ShortenRequest{
		LongURL: req.LongUrl,
		Domain:  req.Domain,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyURL):
			return nil, status.Error(codes.InvalidArgument, "long_url is required")
		case errors.Is(err, service.ErrShortenFailed):
			return nil, status.Error(codes.Unavailable, "shortening service unavailable")
		default:
			return nil, status.Errorf(codes.Internal, "failed to shorten URL: %v", err)
		}
	}

	resp := &proto.ShortenResponse{
		Id:               sub.ID,
		ShortLink:        sub.ShortLink,
		QrCode:           sub.QRCode,
		SimilarityStatus: string(sub.SimilarityStatus),
	}
	if sub.Verdict != nil {
		resp.Similarity = &proto.SimilarityVerdict{
			Score:     sub.Verdict.Score,
			IsSimilar: sub.Verdict.IsSimilar,
			Message:   sub.Verdict.Message,
		}
	}

	return resp, nil
}

func (s *LinkGRPCServer) ModelStatus(ctx context.Context, _ *emptypb.Empty) (*proto.ModelStatusResponse, error) {
	if s.models == nil {
		return nil, status.Error(codes.Unavailable, "embedding model not configured")
	}

	info := s.models.Info()
	return &proto.ModelStatusResponse{
		Backend:    info.Backend,
		Model:      info.Model,
		State:      info.State,
		Dimensions: int32(info.Dimensions),
		Error:      info.Error,
	}, nil
}
