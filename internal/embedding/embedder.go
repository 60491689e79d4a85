// Package embedding turns text into vectors for similarity ranking.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

var ErrMalformedVector = errors.New("malformed vector")

type EmbeddingError struct {
	Msg string
	Err error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func IsEmbeddingError(err error) bool {
	var target *EmbeddingError
	return errors.As(err, &target)
}

// CheckVector rejects empty vectors and vectors holding NaN or Inf.
func CheckVector(v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedVector)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: non-finite value at %d", ErrMalformedVector, i)
		}
	}
	return nil
}

// Cosine returns the cosine similarity of a and b. A zero vector has
// similarity 0 with everything.
func Cosine(a, b []float64) (float64, error) {
	if err := CheckVector(a); err != nil {
		return 0, err
	}
	if err := CheckVector(b); err != nil {
		return 0, err
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension mismatch %d != %d", ErrMalformedVector, len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
