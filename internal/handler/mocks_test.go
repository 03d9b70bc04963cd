package handler

import (
	"context"
	"io"

	"github.com/MikhailRaia/shortlink/internal/embedding"
	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/similarity"
)

type mockSubmitter struct {
	submitFunc func(ctx context.Context, req model.ShortenRequest) (*model.Submission, error)
	requests   []model.ShortenRequest
}

func (m *mockSubmitter) Submit(ctx context.Context, req model.ShortenRequest) (*model.Submission, error) {
	m.requests = append(m.requests, req)
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	return successfulSubmission(req, true), nil
}

type mockCodeWriter struct {
	renderFunc func(w io.Writer, text string) error
}

func (m *mockCodeWriter) Render(w io.Writer, text string) error {
	if m.renderFunc != nil {
		return m.renderFunc(w, text)
	}
	_, err := w.Write([]byte("PNG:" + text))
	return err
}

type mockModels struct {
	info embedding.Info
}

func (m *mockModels) Info() embedding.Info {
	return m.info
}

func successfulSubmission(req model.ShortenRequest, similar bool) *model.Submission {
	verdict := &model.SimilarityVerdict{Score: 0.8, IsSimilar: true, Message: similarity.MessageSimilar}
	if !similar {
		verdict = &model.SimilarityVerdict{Score: 0.2, IsSimilar: false, Message: similarity.MessageNotSimilar}
	}

	return &model.Submission{
		ID:               "sub-1",
		Request:          req,
		ShortLink:        "https://bit.ly/abc",
		CopyEnabled:      true,
		QRCode:           "data:image/png;base64,iVBORw0KGgo=",
		Verdict:          verdict,
		SimilarityStatus: model.SimilarityOK,
	}
}
