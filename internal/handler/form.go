package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/shortlink/internal/model"
	"github.com/MikhailRaia/shortlink/internal/service"
)

// pageData is what the form page renders.
type pageData struct {
	LongURL      string
	Domain       string
	ShortLink    string
	CopyEnabled  bool
	QRCode       template.URL
	Verdict      string
	VerdictClass string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, pageData{})
}

// handleForm serves the no-script form post. A failed shortening re-renders
// the form as submitted without an error message.
func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req := model.ShortenRequest{
		LongURL: r.PostForm.Get("long_url"),
		Domain:  r.PostForm.Get("domain"),
	}
	data := pageData{LongURL: req.LongURL, Domain: req.Domain}

	sub, err := h.submitter.Submit(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrEmptyURL):
		h.renderPage(w, http.StatusBadRequest, data)
		return
	case err != nil, !sub.Succeeded():
		h.renderPage(w, http.StatusOK, data)
		return
	}

	h.renderPage(w, http.StatusOK, pageFromSubmission(sub))
}

func pageFromSubmission(sub *model.Submission) pageData {
	data := pageData{
		LongURL:     sub.Request.LongURL,
		Domain:      sub.Request.Domain,
		ShortLink:   sub.ShortLink,
		CopyEnabled: sub.CopyEnabled,
		// DataURI only ever produces a base64 PNG.
		QRCode: template.URL(sub.QRCode),
	}

	if sub.Verdict != nil {
		data.Verdict = sub.Verdict.Message
		data.VerdictClass = "error"
		if sub.Verdict.IsSimilar {
			data.VerdictClass = "success"
		}
	}

	return data
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
