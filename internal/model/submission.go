package model

// FormState is a step of the submission state machine.
type FormState string

const (
	StateIdle       FormState = "idle"
	StateSubmitting FormState = "submitting"
	StateSuccess    FormState = "success"
	StateRendering  FormState = "rendering"
	StateScoring    FormState = "scoring"
	StateFailure    FormState = "failure"
)

// SimilarityStatus reports whether a verdict could be produced.
type SimilarityStatus string

const (
	SimilarityOK       SimilarityStatus = "ok"
	SimilarityNotReady SimilarityStatus = "not_ready"
	SimilarityFailed   SimilarityStatus = "failed"
	SimilaritySkipped  SimilarityStatus = "skipped"
)

// Submission collects everything produced while handling one ShortenRequest.
type Submission struct {
	ID               string             `json:"id"`
	Request          ShortenRequest     `json:"request"`
	ShortLink        string             `json:"short_link"`
	CopyEnabled      bool               `json:"copy_enabled"`
	QRCode           string             `json:"qr_code,omitempty"`
	Verdict          *SimilarityVerdict `json:"similarity"`
	SimilarityStatus SimilarityStatus   `json:"similarity_status"`
	States           []FormState        `json:"-"`
}

// Enter records a state transition.
func (s *Submission) Enter(state FormState) {
	s.States = append(s.States, state)
}

// Succeeded reports whether the shortening step produced a link.
func (s *Submission) Succeeded() bool {
	return s.ShortLink != ""
}
