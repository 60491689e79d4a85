package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 1}, b: []float64{-1, -1}, want: -1},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "empty", a: []float64{}, b: []float64{1}, wantErr: true},
		{name: "dimension mismatch", a: []float64{1, 2}, b: []float64{1, 2, 3}, wantErr: true},
		{name: "nan", a: []float64{math.NaN(), 1}, b: []float64{1, 1}, wantErr: true},
		{name: "inf", a: []float64{1, 1}, b: []float64{math.Inf(1), 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedVector) {
					t.Fatalf("expected ErrMalformedVector, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestIsEmbeddingError(t *testing.T) {
	err := &EmbeddingError{Msg: "boom"}
	wrapped := errors.Join(errors.New("outer"), err)

	if !IsEmbeddingError(wrapped) {
		t.Error("expected wrapped EmbeddingError to be detected")
	}
	if IsEmbeddingError(errors.New("plain")) {
		t.Error("plain error should not be an EmbeddingError")
	}
}

func TestTFIDF_RanksRelatedTextHigher(t *testing.T) {
	docs := []string{
		"Wireless noise cancelling headphones",
		"Stainless steel chef knife",
		"Bluetooth wireless speaker",
	}
	tf := NewTFIDF(docs)
	ctx := context.Background()

	query, err := tf.Embed(ctx, "wireless headphones")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var scores []float64
	for _, d := range docs {
		v, err := tf.Embed(ctx, d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s, err := Cosine(query, v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		scores = append(scores, s)
	}

	if !(scores[0] > scores[2] && scores[2] > scores[1]) {
		t.Errorf("unexpected ordering: %v", scores)
	}
	if scores[1] != 0 {
		t.Errorf("unrelated doc should score 0, got %f", scores[1])
	}
}

func TestTFIDF_VectorIsNormalized(t *testing.T) {
	tf := NewTFIDF([]string{"red apple", "green apple", "red car"})

	v, err := tf.Embed(context.Background(), "red apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil || len(v) != tf.Dim() {
		t.Fatalf("expected vector of dim %d, got %d", tf.Dim(), len(v))
	}

	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("expected unit norm, got %f", norm)
	}
}

func TestTFIDF_EmptyVocabulary(t *testing.T) {
	tf := NewTFIDF(nil)

	_, err := tf.Embed(context.Background(), "anything")
	if !IsEmbeddingError(err) {
		t.Errorf("expected EmbeddingError, got %v", err)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, World! a 4K TV")
	want := []string{"hello", "world", "4k", "tv"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
