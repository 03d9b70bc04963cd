// Package similarity turns the Euclidean distance between two embeddings
// into a bounded score and a pass/fail verdict.
package similarity

import (
	"errors"
	"fmt"
	"math"

	"github.com/MikhailRaia/shortlink/internal/model"
)

// DefaultThreshold is the minimum score for two strings to count as similar.
const DefaultThreshold = 0.75

const (
	MessageSimilar    = "The shortened URL is similar to the long URL."
	MessageNotSimilar = "The shortened URL is not similar to the long URL."
)

// ErrInvalidInput is returned for empty vectors or vectors of unequal length.
var ErrInvalidInput = errors.New("invalid input")

// Score returns 1 / (1 + sqrt(d)) where d is the squared Euclidean distance
// between a and b.
func Score(a, b model.EmbeddingVector) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrInvalidInput)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector lengths differ (%d != %d)", ErrInvalidInput, len(a), len(b))
	}

	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}

	return 1 / (1 + math.Sqrt(d)), nil
}

// IsSimilar reports whether Score(a, b) reaches threshold.
func IsSimilar(a, b model.EmbeddingVector, threshold float64) (bool, error) {
	s, err := Score(a, b)
	if err != nil {
		return false, err
	}
	return s >= threshold, nil
}

// Evaluate scores a and b against DefaultThreshold.
func Evaluate(a, b model.EmbeddingVector) (model.SimilarityVerdict, error) {
	s, err := Score(a, b)
	if err != nil {
		return model.SimilarityVerdict{}, err
	}

	v := model.SimilarityVerdict{
		Score:     s,
		IsSimilar: s >= DefaultThreshold,
		Message:   MessageNotSimilar,
	}
	if v.IsSimilar {
		v.Message = MessageSimilar
	}
	return v, nil
}
