package embedding

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeVectorStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{data: make(map[string][]byte)}
}

func (f *fakeVectorStore) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeVectorStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	}
	f.sets++
	return redis.NewStatusResult("OK", nil)
}

type countingEmbedder struct {
	calls int
	vec   []float64
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func TestCached_MissThenHit(t *testing.T) {
	store := newFakeVectorStore()
	next := &countingEmbedder{vec: []float64{0.6, 0.8}}
	c := NewCached(next, store, "m", time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if next.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", next.calls)
	}
	if store.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", store.sets)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached vector %v differs from original %v", second, first)
	}
	if _, ok := store.data[vectorKey("m", "hello")]; !ok {
		t.Error("expected vector stored under its model key")
	}
}

func TestCached_UnreadableEntries(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{name: "not json", stored: "not json"},
		{name: "empty vector", stored: "[]"},
		{name: "wrong type", stored: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeVectorStore()
			store.data[vectorKey("m", "hello")] = []byte(tt.stored)
			next := &countingEmbedder{vec: []float64{1, 0}}
			c := NewCached(next, store, "m", time.Minute, zerolog.Nop())

			vec, err := c.Embed(context.Background(), "hello")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next.calls != 1 || !reflect.DeepEqual(vec, []float64{1, 0}) {
				t.Errorf("expected fresh vector from upstream, got %v after %d calls", vec, next.calls)
			}
			if string(store.data[vectorKey("m", "hello")]) != "[1,0]" {
				t.Errorf("expected entry to be replaced, got %q", store.data[vectorKey("m", "hello")])
			}
		})
	}
}

func TestCached_ReadErrorFallsThrough(t *testing.T) {
	store := newFakeVectorStore()
	store.getErr = errors.New("connection refused")
	next := &countingEmbedder{vec: []float64{1}}
	c := NewCached(next, store, "m", time.Minute, zerolog.Nop())

	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("cache errors must not fail the call: %v", err)
	}
	if next.calls != 1 || len(vec) != 1 {
		t.Errorf("expected upstream vector, got %v", vec)
	}
}

func TestCached_UpstreamErrorNotStored(t *testing.T) {
	store := newFakeVectorStore()
	upstream := &EmbeddingError{Msg: "model down"}
	c := NewCached(&countingEmbedder{err: upstream}, store, "m", time.Minute, zerolog.Nop())

	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, upstream) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if store.sets != 0 {
		t.Errorf("expected no cache writes, got %d", store.sets)
	}
}

func TestVectorKey(t *testing.T) {
	if vectorKey("a", "text") == vectorKey("b", "text") {
		t.Error("models must not share keys")
	}
	if vectorKey("a", "text") != vectorKey("a", "text") {
		t.Error("key should be stable")
	}
}
