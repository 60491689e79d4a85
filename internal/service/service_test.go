package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/catalog"
	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/embedding"
	"github.com/actuallystonmai/product-recommender/internal/matcher"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]*domain.RecommendationResult
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]*domain.RecommendationResult)}
}

func (c *memCache) Get(ctx context.Context, customerID, fp string) (*domain.RecommendationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.data[customerID+"|"+fp]
	return res, ok, nil
}

func (c *memCache) Set(ctx context.Context, customerID, fp string, res *domain.RecommendationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[customerID+"|"+fp] = res
	c.sets++
	return nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }

func testStore() *catalog.MemoryStore {
	return catalog.NewMemoryStore(
		[]domain.Customer{
			{ID: "c1", Name: "Alice", Interests: []string{"Books"}},
			{ID: "c2", Name: "Bob", Interests: []string{"Electronics"}},
			{ID: "c3", Name: "Cara"},
		},
		[]domain.Product{
			{ID: "p1", Name: "Novel", Category: "Books", Price: 15, Description: "a mystery novel"},
			{ID: "p2", Name: "Laptop", Category: "Electronics", Price: 900, Description: "a fast electronics laptop"},
			{ID: "p3", Name: "Atlas", Category: "Books", Price: 40, Description: "a world atlas book"},
			{ID: "p4", Name: "Lamp", Category: "Home", Price: 30, Description: "a desk lamp"},
		},
	)
}

func TestGetRecommendations(t *testing.T) {
	svc := NewService(testStore(), nil, Config{}, zerolog.Nop())

	recs, err := svc.GetRecommendations(context.Background(), "c1", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := recs.Result.Items
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Product.ID != "p1" || items[1].Product.ID != "p3" {
		t.Errorf("expected books first, got %s, %s", items[0].Product.ID, items[1].Product.ID)
	}
	if recs.CacheHit {
		t.Error("no cache configured, CacheHit should be false")
	}
}

func TestGetRecommendations_ByName(t *testing.T) {
	svc := NewService(testStore(), nil, Config{}, zerolog.Nop())

	recs, err := svc.GetRecommendations(context.Background(), "Bob", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.CustomerID != "c2" {
		t.Errorf("expected c2, got %s", recs.CustomerID)
	}
}

func TestGetRecommendations_NotFound(t *testing.T) {
	svc := NewService(testStore(), nil, Config{}, zerolog.Nop())

	_, err := svc.GetRecommendations(context.Background(), "nobody", matcher.DefaultOptions())
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestGetRecommendations_EmptyCatalog(t *testing.T) {
	store := catalog.NewMemoryStore([]domain.Customer{{ID: "c1"}}, nil)
	svc := NewService(store, nil, Config{}, zerolog.Nop())

	_, err := svc.GetRecommendations(context.Background(), "c1", matcher.DefaultOptions())
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestGetRecommendations_CacheAside(t *testing.T) {
	cache := newMemCache()
	svc := NewService(testStore(), cache, Config{}, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.GetRecommendations(ctx, "c1", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GetRecommendations(ctx, "c1", matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.CacheHit || !second.CacheHit {
		t.Errorf("expected miss then hit, got %v, %v", first.CacheHit, second.CacheHit)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.sets)
	}
}

func TestGetRecommendations_UnseededRandomNotCached(t *testing.T) {
	cache := newMemCache()
	svc := NewService(testStore(), cache, Config{}, zerolog.Nop())

	opts := matcher.DefaultOptions()
	opts.Backfill = matcher.BackfillRandom
	opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < 2; i++ {
		recs, err := svc.GetRecommendations(context.Background(), "c3", opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recs.CacheHit {
			t.Error("unseeded random request must not be served from cache")
		}
	}
	if cache.sets != 0 {
		t.Errorf("expected no cache writes, got %d", cache.sets)
	}
}

func TestGetRecommendations_InvalidOptions(t *testing.T) {
	svc := NewService(testStore(), newMemCache(), Config{}, zerolog.Nop())

	opts := matcher.DefaultOptions()
	opts.K = 0
	_, err := svc.GetRecommendations(context.Background(), "c1", opts)
	if !errors.Is(err, domain.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
}

func TestGetRecommendations_SimilarityWithLocalModel(t *testing.T) {
	svc := NewService(testStore(), nil, Config{}, zerolog.Nop())

	opts := matcher.DefaultOptions()
	opts.Mode = domain.ModeSimilarityRank
	opts.K = 4

	recs, err := svc.GetRecommendations(context.Background(), "c2", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.Result.Items[0].Product.ID != "p2" {
		t.Errorf("expected laptop first, got %s", recs.Result.Items[0].Product.ID)
	}
	if recs.Result.Mode != domain.ModeSimilarityRank {
		t.Errorf("expected similarity mode, got %s", recs.Result.Mode)
	}
}

type slowEmbedder struct{}

func (slowEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	<-ctx.Done()
	return nil, &embedding.EmbeddingError{Msg: "slow", Err: ctx.Err()}
}

func TestGetRecommendations_Timeout(t *testing.T) {
	svc := NewService(testStore(), nil, Config{
		RecommendTimeout: 20 * time.Millisecond,
		Embedder:         slowEmbedder{},
	}, zerolog.Nop())

	opts := matcher.DefaultOptions()
	opts.Mode = domain.ModeSimilarityRank

	_, err := svc.GetRecommendations(context.Background(), "c1", opts)
	if code, _ := CategorizeError(err); code != "request_timeout" {
		t.Errorf("expected request_timeout, got %s (%v)", code, err)
	}
}

func TestGetBatchRecommendations(t *testing.T) {
	svc := NewService(testStore(), nil, Config{}, zerolog.Nop())

	opts := matcher.DefaultOptions()
	opts.K = 2
	resp, err := svc.GetBatchRecommendations(context.Background(), 1, 10, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.TotalCustomers != 3 || len(resp.Results) != 3 {
		t.Fatalf("expected 3 customers, got total=%d results=%d", resp.TotalCustomers, len(resp.Results))
	}
	if resp.Summary.SuccessCount != 3 || resp.Summary.FailedCount != 0 {
		t.Errorf("unexpected summary: %+v", resp.Summary)
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if resp.Results[i].CustomerID != want {
			t.Errorf("result %d: expected %s, got %s", i, want, resp.Results[i].CustomerID)
		}
	}
	if resp.Results[2].InterestMatched {
		t.Error("customer without interests should be flagged as not interest matched")
	}
}

func TestGetBatchRecommendations_Failures(t *testing.T) {
	store := catalog.NewMemoryStore([]domain.Customer{{ID: "c1"}, {ID: "c2"}}, nil)
	svc := NewService(store, nil, Config{}, zerolog.Nop())

	resp, err := svc.GetBatchRecommendations(context.Background(), 1, 10, matcher.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Summary.FailedCount != 2 {
		t.Errorf("expected 2 failures, got %+v", resp.Summary)
	}
	if resp.Results[0].Error != "empty_catalog" {
		t.Errorf("expected empty_catalog, got %s", resp.Results[0].Error)
	}
}

func TestListCustomers(t *testing.T) {
	svc := NewService(testStore(), nil, Config{}, zerolog.Nop())

	customers, total, err := svc.ListCustomers(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(customers) != 1 || customers[0].ID != "c3" {
		t.Errorf("unexpected page: total=%d customers=%+v", total, customers)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{err: domain.ErrCustomerNotFound, code: "customer_not_found"},
		{err: fmt.Errorf("%w: k must be positive", domain.ErrInvalidOptions), code: "invalid_options"},
		{err: domain.ErrEmptyCatalog, code: "empty_catalog"},
		{err: fmt.Errorf("similarity ranking: %w", context.DeadlineExceeded), code: "request_timeout"},
		{err: &embedding.EmbeddingError{Msg: "down"}, code: "embedding_error"},
		{err: errors.New("boom"), code: "internal_error"},
	}

	for _, tt := range tests {
		if code, _ := CategorizeError(tt.err); code != tt.code {
			t.Errorf("CategorizeError(%v) = %s, want %s", tt.err, code, tt.code)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := matcher.DefaultOptions()
	b := matcher.Options{K: 3}
	if fingerprint(a) != fingerprint(b) {
		t.Error("defaulted and explicit options should share a fingerprint")
	}

	c := a
	c.PriceRange = &matcher.PriceRange{Min: 1, Max: 2}
	if fingerprint(a) == fingerprint(c) {
		t.Error("price range should change the fingerprint")
	}

	d := a
	d.Seed = 9
	if fingerprint(a) != fingerprint(d) {
		t.Error("seed only matters for random backfill")
	}
}

// countingStore counts catalog loads.
type countingStore struct {
	*catalog.MemoryStore
	mu           sync.Mutex
	productLoads int
}

func (s *countingStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	s.productLoads++
	s.mu.Unlock()
	return s.MemoryStore.ListProducts(ctx)
}

func TestGetRecommendations_CacheHitSkipsCatalog(t *testing.T) {
	store := &countingStore{MemoryStore: testStore()}
	svc := NewService(store, newMemCache(), Config{}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.GetRecommendations(ctx, "c1", matcher.DefaultOptions()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.productLoads != 1 {
		t.Errorf("expected catalog to load once, loaded %d times", store.productLoads)
	}
}

func TestGetRecommendations_HasSignals(t *testing.T) {
	svc := NewService(testStore(), newMemCache(), Config{}, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		id   string
		want bool
	}{
		{id: "c1", want: true},
		{id: "c3", want: false},
		{id: "c3", want: false},
	}
	for _, tt := range tests {
		recs, err := svc.GetRecommendations(ctx, tt.id, matcher.DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recs.HasSignals != tt.want {
			t.Errorf("%s (cache hit %t): expected HasSignals %t, got %t", tt.id, recs.CacheHit, tt.want, recs.HasSignals)
		}
	}
}
