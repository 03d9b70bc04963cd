package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/service"
)

type ShortenResponse struct {
	ID               string                   `json:"id"`
	ShortLink        string                   `json:"short_link"`
	QRCode           string                   `json:"qr_code"`
	Similarity       *model.SimilarityVerdict `json:"similarity"`
	SimilarityStatus model.SimilarityStatus   `json:"similarity_status"`
}

func (h *Handler) HandleShortenJSON(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	contentEncoding := r.Header.Get("Content-Encoding")

	if contentEncoding != "gzip" && !strings.Contains(contentType, "application/json") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var request model.ShortenRequest
	if err := json.Unmarshal(body, &request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sub, err := h.submitter.Submit(r.Context(), request)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyURL):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, service.ErrShortenFailed):
			w.WriteHeader(http.StatusBadGateway)
		default:
			log.Error().Err(err).Msg("Failed to process submission")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	if !sub.Succeeded() {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, ShortenResponse{
		ID:               sub.ID,
		ShortLink:        sub.ShortLink,
		QRCode:           sub.QRCode,
		Similarity:       sub.Verdict,
		SimilarityStatus: sub.SimilarityStatus,
	})
}
