package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikhailRaia/shortlink/internal/embedding"
	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/similarity"
)

type mockShortener struct {
	shortenFunc func(ctx context.Context, req model.ShortenRequest) (model.ShortenResult, error)
	calls       []model.ShortenRequest
}

func (m *mockShortener) Shorten(ctx context.Context, req model.ShortenRequest) (model.ShortenResult, error) {
	m.calls = append(m.calls, req)
	if m.shortenFunc != nil {
		return m.shortenFunc(ctx, req)
	}
	return model.ShortenResult{ShortLink: "https://bit.ly/abc"}, nil
}

type mockRenderer struct {
	dataURIFunc func(text string) (string, error)
	calls       []string
}

func (m *mockRenderer) DataURI(text string) (string, error) {
	m.calls = append(m.calls, text)
	if m.dataURIFunc != nil {
		return m.dataURIFunc(text)
	}
	return "data:image/png;base64,AAAA", nil
}

type mockEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([]model.EmbeddingVector, error)
	calls     [][]string
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]model.EmbeddingVector, error) {
	m.calls = append(m.calls, texts)
	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}
	return []model.EmbeddingVector{{0, 0}, {0, 0}}, nil
}

type waitingEmbedder struct {
	mockEmbedder
	waitFunc func(ctx context.Context) error
}

func (w *waitingEmbedder) WaitReady(ctx context.Context) error {
	return w.waitFunc(ctx)
}

func TestController_Submit_Success(t *testing.T) {
	shortener := &mockShortener{}
	renderer := &mockRenderer{}
	embedder := &mockEmbedder{}
	c := NewController(shortener, renderer, embedder, 0)

	sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com/very/long"})
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "https://bit.ly/abc", sub.ShortLink)
	assert.True(t, sub.CopyEnabled)
	assert.True(t, sub.Succeeded())
	assert.Equal(t, "data:image/png;base64,AAAA", sub.QRCode)
	assert.Equal(t, []string{"https://bit.ly/abc"}, renderer.calls)

	require.Len(t, embedder.calls, 1)
	assert.Equal(t, []string{"https://bit.ly/abc", "https://example.com/very/long"}, embedder.calls[0])

	assert.Equal(t, model.SimilarityOK, sub.SimilarityStatus)
	require.NotNil(t, sub.Verdict)
	assert.InDelta(t, 1.0, sub.Verdict.Score, 1e-9)
	assert.True(t, sub.Verdict.IsSimilar)
	assert.Equal(t, similarity.MessageSimilar, sub.Verdict.Message)

	assert.Equal(t, []model.FormState{
		model.StateSubmitting,
		model.StateSuccess,
		model.StateRendering,
		model.StateScoring,
		model.StateIdle,
	}, sub.States)
}

func TestController_Submit_NotSimilar(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]model.EmbeddingVector, error) {
			return []model.EmbeddingVector{{0, 0}, {3, 4}}, nil
		},
	}
	c := NewController(&mockShortener{}, &mockRenderer{}, embedder, 0)

	sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
	require.NoError(t, err)
	require.NotNil(t, sub.Verdict)

	assert.InDelta(t, 1.0/(1.0+5.0), sub.Verdict.Score, 1e-9)
	assert.False(t, sub.Verdict.IsSimilar)
	assert.Equal(t, similarity.MessageNotSimilar, sub.Verdict.Message)
}

func TestController_Submit_ShortenFailure(t *testing.T) {
	tests := []struct {
		name   string
		result model.ShortenResult
		err    error
	}{
		{name: "network error", err: errors.New("connection refused")},
		{name: "empty link", result: model.ShortenResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shortener := &mockShortener{
				shortenFunc: func(ctx context.Context, req model.ShortenRequest) (model.ShortenResult, error) {
					return tt.result, tt.err
				},
			}
			renderer := &mockRenderer{}
			embedder := &mockEmbedder{}
			c := NewController(shortener, renderer, embedder, 0)

			sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShortenFailed))
			assert.Nil(t, sub)
			assert.Empty(t, renderer.calls)
			assert.Empty(t, embedder.calls)
		})
	}
}

func TestController_Submit_EmptyURL(t *testing.T) {
	shortener := &mockShortener{}
	c := NewController(shortener, &mockRenderer{}, &mockEmbedder{}, 0)

	for _, in := range []string{"", "   ", "\t\n"} {
		sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: in})
		assert.ErrorIs(t, err, ErrEmptyURL)
		assert.Nil(t, sub)
	}
	assert.Empty(t, shortener.calls)
}

func TestController_Submit_TrimsInput(t *testing.T) {
	shortener := &mockShortener{}
	c := NewController(shortener, &mockRenderer{}, &mockEmbedder{}, 0)

	_, err := c.Submit(context.Background(), model.ShortenRequest{
		LongURL: "  https://example.com/a  ",
		Domain:  " bit.ly ",
	})
	require.NoError(t, err)
	require.Len(t, shortener.calls, 1)
	assert.Equal(t, "https://example.com/a", shortener.calls[0].LongURL)
	assert.Equal(t, "bit.ly", shortener.calls[0].Domain)
}

func TestController_Submit_ModelNotReady(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]model.EmbeddingVector, error) {
			return nil, embedding.ErrModelNotReady
		},
	}
	renderer := &mockRenderer{}
	c := NewController(&mockShortener{}, renderer, embedder, 0)

	sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, "https://bit.ly/abc", sub.ShortLink)
	assert.NotEmpty(t, sub.QRCode)
	assert.Nil(t, sub.Verdict)
	assert.Equal(t, model.SimilarityNotReady, sub.SimilarityStatus)
}

func TestController_Submit_EmbeddingFailure(t *testing.T) {
	tests := []struct {
		name    string
		vectors []model.EmbeddingVector
		err     error
	}{
		{name: "backend error", err: embedding.ErrEmbeddingFailed},
		{name: "wrong count", vectors: []model.EmbeddingVector{{1, 2}}},
		{name: "mismatched dims", vectors: []model.EmbeddingVector{{1, 2}, {1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &mockEmbedder{
				embedFunc: func(ctx context.Context, texts []string) ([]model.EmbeddingVector, error) {
					return tt.vectors, tt.err
				},
			}
			c := NewController(&mockShortener{}, &mockRenderer{}, embedder, 0)

			sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
			require.NoError(t, err)
			assert.Nil(t, sub.Verdict)
			assert.Equal(t, model.SimilarityFailed, sub.SimilarityStatus)
		})
	}
}

func TestController_Submit_RenderFailureContinues(t *testing.T) {
	renderer := &mockRenderer{
		dataURIFunc: func(text string) (string, error) {
			return "", errors.New("encode failed")
		},
	}
	embedder := &mockEmbedder{}
	c := NewController(&mockShortener{}, renderer, embedder, 0)

	sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
	require.NoError(t, err)
	assert.Empty(t, sub.QRCode)
	assert.Len(t, embedder.calls, 1)
	assert.Equal(t, model.SimilarityOK, sub.SimilarityStatus)
}

func TestController_Submit_WaitsForModel(t *testing.T) {
	t.Run("ready in time", func(t *testing.T) {
		embedder := &waitingEmbedder{waitFunc: func(ctx context.Context) error { return nil }}
		c := NewController(&mockShortener{}, &mockRenderer{}, embedder, time.Second)

		sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
		require.NoError(t, err)
		assert.Equal(t, model.SimilarityOK, sub.SimilarityStatus)
		assert.Len(t, embedder.calls, 1)
	})

	t.Run("still loading", func(t *testing.T) {
		embedder := &waitingEmbedder{waitFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return embedding.ErrModelNotReady
		}}
		c := NewController(&mockShortener{}, &mockRenderer{}, embedder, 10*time.Millisecond)

		sub, err := c.Submit(context.Background(), model.ShortenRequest{LongURL: "https://example.com"})
		require.NoError(t, err)
		assert.Equal(t, model.SimilarityNotReady, sub.SimilarityStatus)
		assert.Empty(t, embedder.calls)
	})
}
