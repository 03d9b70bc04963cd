package handler

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/shortlink/internal/embedding"
	"github.com/MikhailRaia/shortlink/internal/logger"
	"github.com/MikhailRaia/shortlink/internal/middleware"
	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/qrcode"
)

//go:embed templates/*.html static/*
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "templates/index.html"))

type FormSubmitter interface {
	Submit(ctx context.Context, req model.ShortenRequest) (*model.Submission, error)
}

type CodeWriter interface {
	Render(w io.Writer, text string) error
}

type ModelReporter interface {
	Info() embedding.Info
}

type Option func(*Handler)

// WithClientIdentity tags requests with a cookie-backed client ID.
func WithClientIdentity(identity *middleware.ClientIdentity) Option {
	return func(h *Handler) {
		h.identity = identity
	}
}

// WithRateLimiter limits the shorten endpoints per client.
func WithRateLimiter(limiter *middleware.RateLimiter) Option {
	return func(h *Handler) {
		h.limiter = limiter
	}
}

type Handler struct {
	submitter FormSubmitter
	codes     CodeWriter
	models    ModelReporter
	identity  *middleware.ClientIdentity
	limiter   *middleware.RateLimiter
	page      *template.Template
}

func NewHandler(submitter FormSubmitter, codes CodeWriter, models ModelReporter, opts ...Option) *Handler {
	h := &Handler{
		submitter: submitter,
		codes:     codes,
		models:    models,
		page:      pageTemplate,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if h.identity != nil {
		r.Use(h.identity.Identify)
	}
	r.Use(logger.RequestLogger)

	r.Use(middleware.GzipReader)
	r.Use(middleware.GzipMiddleware)

	r.Get("/", h.handleIndex)
	r.Get("/ping", h.handlePing)
	r.Get("/api/model", h.handleModel)
	r.Get("/api/qr", h.handleQRCode)
	r.Get("/static/app.js", h.handleScript)

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Limit)
		}
		r.Post("/", h.handleForm)
		r.Post("/api/shorten", h.HandleShortenJSON)
	})

	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if h.models != nil {
		state = h.models.Info().State
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  state,
	})
}

func (h *Handler) handleModel(w http.ResponseWriter, r *http.Request) {
	if h.models == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, h.models.Info())
}

func (h *Handler) handleScript(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, assets, "static/app.js")
}

func (h *Handler) handleQRCode(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := h.codes.Render(&buf, text); err != nil {
		if errors.Is(err, qrcode.ErrTextTooLong) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Failed to render QR code")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
