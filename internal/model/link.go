package model

// ShortenRequest is a single form submission.
type ShortenRequest struct {
	LongURL string `json:"long_url"`
	Domain  string `json:"domain,omitempty"`
}

// ShortenResult holds the short link returned by the shortening service.
type ShortenResult struct {
	ShortLink string `json:"short_link"`
}

// EmbeddingVector is a fixed-length embedding produced for one input string.
type EmbeddingVector []float64

// SimilarityVerdict is the outcome of comparing two embedding vectors.
type SimilarityVerdict struct {
	Score     float64 `json:"score"`
	IsSimilar bool    `json:"is_similar"`
	Message   string  `json:"message"`
}
