package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/MikhailRaia/shortlink/internal/embedding"
	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/similarity"
	"github.com/MikhailRaia/shortlink/internal/tracing"
)

var (
	// ErrEmptyURL is returned when the long URL is blank after trimming.
	ErrEmptyURL = errors.New("long url is required")
	// ErrShortenFailed is returned when no short link could be obtained.
	ErrShortenFailed = errors.New("shortening failed")
)

// Shortener obtains a short link for a long URL.
type Shortener interface {
	Shorten(ctx context.Context, req model.ShortenRequest) (model.ShortenResult, error)
}

// CodeRenderer renders a short link as an inline image.
type CodeRenderer interface {
	DataURI(text string) (string, error)
}

// Embedder turns strings into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]model.EmbeddingVector, error)
}

// ReadyWaiter is implemented by embedders that can block until loaded.
type ReadyWaiter interface {
	WaitReady(ctx context.Context) error
}

// Controller runs one submission through shorten, display, code rendering
// and similarity scoring.
type Controller struct {
	shortener Shortener
	renderer  CodeRenderer
	embedder  Embedder
	readyWait time.Duration
}

// NewController builds a Controller. readyWait > 0 lets a submission wait
// that long for the embedding model before reporting it as not ready.
func NewController(shortener Shortener, renderer CodeRenderer, embedder Embedder, readyWait time.Duration) *Controller {
	return &Controller{
		shortener: shortener,
		renderer:  renderer,
		embedder:  embedder,
		readyWait: readyWait,
	}
}

// Submit handles one form submission. A shortening failure is logged and
// reported as ErrShortenFailed with no further steps taken.
func (c *Controller) Submit(ctx context.Context, req model.ShortenRequest) (*model.Submission, error) {
	req.LongURL = strings.TrimSpace(req.LongURL)
	req.Domain = strings.TrimSpace(req.Domain)
	if req.LongURL == "" {
		return nil, ErrEmptyURL
	}

	sub := &model.Submission{
		ID:               uuid.NewString(),
		Request:          req,
		SimilarityStatus: model.SimilaritySkipped,
	}

	ctx, span := tracing.StartSpan(ctx, "submission",
		attribute.String("submission.id", sub.ID),
		attribute.String("long_url", req.LongURL),
	)

	logger := log.With().Str("submission", sub.ID).Logger()

	sub.Enter(model.StateSubmitting)
	result, err := c.shorten(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("long_url", req.LongURL).Msg("Failed to shorten URL")
		sub.Enter(model.StateFailure)
		sub.Enter(model.StateIdle)
		tracing.End(span, err)
		return nil, err
	}

	sub.Enter(model.StateSuccess)
	sub.ShortLink = result.ShortLink
	sub.CopyEnabled = true

	sub.Enter(model.StateRendering)
	c.render(ctx, sub)

	sub.Enter(model.StateScoring)
	c.score(ctx, sub)

	sub.Enter(model.StateIdle)

	logger.Info().
		Str("short_link", sub.ShortLink).
		Str("similarity_status", string(sub.SimilarityStatus)).
		Msg("Submission processed")

	tracing.End(span, nil)
	return sub, nil
}

func (c *Controller) shorten(ctx context.Context, req model.ShortenRequest) (model.ShortenResult, error) {
	ctx, span := tracing.StartSpan(ctx, "shorten", attribute.String("domain", req.Domain))

	result, err := c.shortener.Shorten(ctx, req)
	if err == nil && result.ShortLink == "" {
		err = errors.New("empty short link")
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrShortenFailed, err)
	}

	tracing.End(span, err)
	return result, err
}

func (c *Controller) render(ctx context.Context, sub *model.Submission) {
	_, span := tracing.StartSpan(ctx, "render_code")

	uri, err := c.renderer.DataURI(sub.ShortLink)
	if err != nil {
		log.Error().Err(err).Str("submission", sub.ID).Msg("Failed to render QR code")
	} else {
		sub.QRCode = uri
	}

	tracing.End(span, err)
}

func (c *Controller) score(ctx context.Context, sub *model.Submission) {
	ctx, span := tracing.StartSpan(ctx, "similarity")

	verdict, err := c.similarity(ctx, sub.ShortLink, sub.Request.LongURL)
	switch {
	case err == nil:
		sub.Verdict = &verdict
		sub.SimilarityStatus = model.SimilarityOK
		span.SetAttributes(
			attribute.Float64("similarity.score", verdict.Score),
			attribute.Bool("similarity.is_similar", verdict.IsSimilar),
		)
	case errors.Is(err, embedding.ErrModelNotReady):
		log.Warn().Err(err).Str("submission", sub.ID).Msg("Similarity check skipped, model not ready")
		sub.SimilarityStatus = model.SimilarityNotReady
	default:
		log.Error().Err(err).Str("submission", sub.ID).Msg("Similarity check failed")
		sub.SimilarityStatus = model.SimilarityFailed
	}

	tracing.End(span, err)
}

func (c *Controller) similarity(ctx context.Context, shortLink, longURL string) (model.SimilarityVerdict, error) {
	if c.readyWait > 0 {
		if w, ok := c.embedder.(ReadyWaiter); ok {
			waitCtx, cancel := context.WithTimeout(ctx, c.readyWait)
			err := w.WaitReady(waitCtx)
			cancel()
			if err != nil {
				return model.SimilarityVerdict{}, err
			}
		}
	}

	vectors, err := c.embedder.Embed(ctx, []string{shortLink, longURL})
	if err != nil {
		return model.SimilarityVerdict{}, err
	}
	if len(vectors) != 2 {
		return model.SimilarityVerdict{}, fmt.Errorf("%w: got %d vectors, want 2", similarity.ErrInvalidInput, len(vectors))
	}

	return similarity.Evaluate(vectors[0], vectors[1])
}
