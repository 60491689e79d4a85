package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TFIDF is a local vectorizer fitted on a fixed document set, usually the
// product texts of one catalog snapshot. It is safe for concurrent use after
// construction.
type TFIDF struct {
	vocab map[string]int
	idf   []float64
}

func NewTFIDF(docs []string) *TFIDF {
	vocab := make(map[string]int)
	df := make([]int, 0)

	for _, doc := range docs {
		seen := make(map[int]bool)
		for _, tok := range tokenize(doc) {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
				df = append(df, 0)
			}
			if !seen[idx] {
				seen[idx] = true
				df[idx]++
			}
		}
	}

	// Smoothed idf: ln((1+n)/(1+df)) + 1
	n := float64(len(docs))
	idf := make([]float64, len(df))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	return &TFIDF{vocab: vocab, idf: idf}
}

func (t *TFIDF) Dim() int {
	return len(t.idf)
}

// Embed returns the L2-normalized tf-idf vector of text. Tokens outside the
// fitted vocabulary are ignored, so unrelated text yields a zero vector.
func (t *TFIDF) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EmbeddingError{Msg: "tfidf embed cancelled", Err: err}
	}
	if len(t.idf) == 0 {
		return nil, &EmbeddingError{Msg: "tfidf vocabulary is empty"}
	}

	vec := make([]float64, len(t.idf))
	for _, tok := range tokenize(text) {
		if idx, ok := t.vocab[tok]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for i := range vec {
		vec[i] *= t.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// tokenize lowercases text and keeps runs of letters or digits at least two
// runes long.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
