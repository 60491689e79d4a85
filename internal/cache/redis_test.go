package cache

import (
	"context"
	"errors"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// fakeClient keeps values in a map and answers SCAN in a single page.
type fakeClient struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
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

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if ok, _ := path.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func TestBuildKey(t *testing.T) {
	a := buildKey("c1", "k=3")
	if a != buildKey("c1", "k=3") {
		t.Error("key should be stable")
	}
	if a == buildKey("c1", "k=4") {
		t.Error("different options should give different keys")
	}
	if a == buildKey("c2", "k=3") {
		t.Error("different customers should give different keys")
	}

	prefix := a[:strings.Index(a, ":opts:")]
	if !strings.HasPrefix(buildKey("c1", "mode=probability_rank"), prefix) {
		t.Error("keys for one customer should share a prefix")
	}
}

func TestNewCache_DefaultTTL(t *testing.T) {
	c := NewCache(nil, 0)
	if c.ttl != defaultTTL {
		t.Errorf("expected default ttl %v, got %v", defaultTTL, c.ttl)
	}
}

func TestCache_GetSet(t *testing.T) {
	client := newFakeClient()
	c := NewCache(client, time.Minute)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "c1", "k=3")
	if err != nil || found {
		t.Fatalf("expected clean miss, got found=%t err=%v", found, err)
	}

	score := 0.75
	want := &domain.RecommendationResult{
		Items: []domain.Recommendation{
			{Product: domain.Product{ID: "p1", Category: "Books", Price: 10}, Score: &score, Matched: true, Source: domain.SourceInterest},
		},
		Mode: domain.ModeProbabilityRank,
	}
	if err := c.Set(ctx, "c1", "k=3", want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := client.ttls[buildKey("c1", "k=3")]; ttl != time.Minute {
		t.Errorf("expected ttl 1m, got %v", ttl)
	}

	got, found, err := c.Get(ctx, "c1", "k=3")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%t err=%v", found, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCache_GetErrors(t *testing.T) {
	ctx := context.Background()

	client := newFakeClient()
	client.data[buildKey("c1", "k=3")] = []byte("{broken")
	if _, found, err := NewCache(client, 0).Get(ctx, "c1", "k=3"); err == nil || found {
		t.Errorf("expected decode error, got found=%t err=%v", found, err)
	}

	down := errors.New("connection refused")
	client = newFakeClient()
	client.getErr = down
	if _, _, err := NewCache(client, 0).Get(ctx, "c1", "k=3"); !errors.Is(err, down) {
		t.Errorf("expected wrapped connection error, got %v", err)
	}
}

func TestCache_ClearAll(t *testing.T) {
	client := newFakeClient()
	c := NewCache(client, time.Minute)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2"} {
		if err := c.Set(ctx, id, "k=3", &domain.RecommendationResult{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	client.data["emb:model:0000000000000001"] = []byte("[1]")

	if err := c.ClearAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.data) != 1 {
		t.Errorf("expected only the vector entry to remain, got %d keys", len(client.data))
	}
	if _, ok := client.data["emb:model:0000000000000001"]; !ok {
		t.Error("ClearAll must not touch embedding vectors")
	}
	if err := c.Ping(ctx); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
