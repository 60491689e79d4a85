package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/embedding"
	"github.com/actuallystonmai/product-recommender/internal/matcher"
	"github.com/actuallystonmai/product-recommender/internal/metrics"
)

const (
	batchConcurrency = 10
	defaultTimeout   = 5 * time.Second
)

// Store is the customer and catalog source: files in memory or PostgreSQL.
type Store interface {
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, offset, limit int) ([]domain.Customer, error)
	CountCustomers(ctx context.Context) (int, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	Ping(ctx context.Context) error
}

type ResultCache interface {
	Get(ctx context.Context, customerID, fingerprint string) (*domain.RecommendationResult, bool, error)
	Set(ctx context.Context, customerID, fingerprint string, res *domain.RecommendationResult) error
	Ping(ctx context.Context) error
}

type Config struct {
	// RecommendTimeout bounds one recommendation call, embedding included.
	RecommendTimeout time.Duration
	// Embedder serves similarity_rank. When nil a TF-IDF model is fitted on
	// the current catalog.
	Embedder embedding.Embedder
}

type Service struct {
	store  Store
	cache  ResultCache
	cfg    Config
	logger zerolog.Logger

	tfidfMu sync.Mutex
	tfidfFP uint64
	tfidf   *embedding.TFIDF
}

// Recommendations is one customer's result plus serving metadata.
type Recommendations struct {
	CustomerID string
	Result     *domain.RecommendationResult
	CacheHit   bool
	// HasSignals is false for profiles with no interests or history.
	HasSignals bool
}

// NewService wires the service. cache may be nil.
func NewService(store Store, cache ResultCache, cfg Config, logger zerolog.Logger) *Service {
	if cfg.RecommendTimeout <= 0 {
		cfg.RecommendTimeout = defaultTimeout
	}
	return &Service{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.store.GetCustomerByID(ctx, id)
}

// ListCustomers returns one page of profiles and the total count.
func (s *Service) ListCustomers(ctx context.Context, page, limit int) ([]domain.Customer, int, error) {
	customers, err := s.store.ListCustomers(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	total, err := s.store.CountCustomers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

func (s *Service) GetRecommendations(ctx context.Context, customerID string, opts matcher.Options) (*Recommendations, error) {
	customer, err := s.store.GetCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch customer: %w", err)
	}

	start := time.Now()
	if recs, ok := s.fromCache(ctx, customer, opts, start); ok {
		return recs, nil
	}

	catalog, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	return s.recommend(ctx, customer, catalog, opts, start)
}

func modeLabel(opts matcher.Options) string {
	if opts.Mode == "" {
		return string(domain.ModeCategoryMatch)
	}
	return string(opts.Mode)
}

// fromCache serves a deterministic request from the result cache.
func (s *Service) fromCache(ctx context.Context, customer *domain.Customer, opts matcher.Options, start time.Time) (*Recommendations, bool) {
	if s.cache == nil || !opts.Deterministic() {
		return nil, false
	}

	cached, found, err := s.cache.Get(ctx, customer.ID, fingerprint(opts))
	if err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customer.ID).Msg("cache get error")
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("recommendations").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("recommendations").Inc()
	metrics.RecordRecommendation(modeLabel(opts), "success", time.Since(start))
	return &Recommendations{
		CustomerID: customer.ID,
		Result:     cached,
		CacheHit:   true,
		HasSignals: customer.HasSignals(),
	}, true
}

// recommend runs the matcher for one customer and stores deterministic
// results. Callers check fromCache first.
func (s *Service) recommend(ctx context.Context, customer *domain.Customer, catalog []domain.Product, opts matcher.Options, start time.Time) (*Recommendations, error) {
	mode := modeLabel(opts)

	if needsEmbedder(opts) {
		opts.Embedder = s.embedderFor(catalog)
	}
	if err := opts.Validate(); err != nil {
		metrics.RecordRecommendation(mode, "invalid_options", time.Since(start))
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RecommendTimeout)
	defer cancel()

	result, err := matcher.Recommend(ctx, customer, catalog, opts)
	if err != nil {
		code, _ := CategorizeError(err)
		metrics.RecordRecommendation(mode, code, time.Since(start))
		return nil, err
	}

	metrics.RecordRecommendation(mode, "success", time.Since(start))
	if result.Backfilled > 0 {
		policy := string(opts.Backfill)
		if policy == "" {
			policy = string(matcher.BackfillCatalogOrder)
		}
		metrics.BackfilledItems.WithLabelValues(policy).Add(float64(result.Backfilled))
	}
	for _, w := range result.Warnings {
		metrics.RecommendationWarnings.WithLabelValues(string(w.Code)).Inc()
	}
	if len(result.Warnings) > 0 {
		s.logger.Warn().Str("customer_id", customer.ID).Int("warnings", len(result.Warnings)).
			Str("mode", string(result.Mode)).Msg("recommendation returned with warnings")
	}

	if s.cache != nil && opts.Deterministic() {
		if err := s.cache.Set(ctx, customer.ID, fingerprint(opts), result); err != nil {
			s.logger.Warn().Err(err).Str("customer_id", customer.ID).Msg("cache set error")
		}
	}

	return &Recommendations{CustomerID: customer.ID, Result: result, HasSignals: customer.HasSignals()}, nil
}

func needsEmbedder(opts matcher.Options) bool {
	return opts.Mode == domain.ModeSimilarityRank && opts.Embedder == nil
}

// embedderFor returns the configured embedder, or a TF-IDF model fitted on
// catalog and reused while the catalog is unchanged.
func (s *Service) embedderFor(catalog []domain.Product) embedding.Embedder {
	if s.cfg.Embedder != nil {
		return s.cfg.Embedder
	}

	fp := catalogFingerprint(catalog)

	s.tfidfMu.Lock()
	defer s.tfidfMu.Unlock()
	if s.tfidf == nil || s.tfidfFP != fp {
		texts := make([]string, len(catalog))
		for i := range catalog {
			texts[i] = catalog[i].Text()
		}
		s.tfidf = embedding.NewTFIDF(texts)
		s.tfidfFP = fp
		s.logger.Info().Int("products", len(catalog)).Int("vocabulary", s.tfidf.Dim()).Msg("fitted tf-idf model")
	}
	return s.tfidf
}

func (s *Service) GetBatchRecommendations(ctx context.Context, page, limit int, opts matcher.Options) (*domain.BatchResponse, error) {
	start := time.Now()

	customers, err := s.store.ListCustomers(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch customers: %w", err)
	}

	totalCustomers, err := s.store.CountCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	catalog, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	// A *rand.Rand is not safe for concurrent use; give each customer its own.
	perCustomer := make([]matcher.Options, len(customers))
	for i := range customers {
		perCustomer[i] = opts
		if opts.Rand != nil {
			perCustomer[i].Rand = rand.New(rand.NewSource(opts.Rand.Int63()))
		}
	}

	results := make([]domain.BatchCustomerResult, len(customers))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for i := range customers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.processCustomerForBatch(ctx, &customers[idx], catalog, perCustomer[idx])
		}(i)
	}
	wg.Wait()

	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}

	return &domain.BatchResponse{
		Page:           page,
		Limit:          limit,
		TotalCustomers: totalCustomers,
		Results:        results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Metadata: domain.BatchMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (s *Service) processCustomerForBatch(ctx context.Context, customer *domain.Customer, catalog []domain.Product, opts matcher.Options) domain.BatchCustomerResult {
	start := time.Now()
	recs, ok := s.fromCache(ctx, customer, opts, start)
	if !ok {
		var err error
		recs, err = s.recommend(ctx, customer, catalog, opts, start)
		if err != nil {
			return s.batchFailure(customer, err)
		}
	}

	return domain.BatchCustomerResult{
		CustomerID:      customer.ID,
		Recommendations: recs.Result.Items,
		InterestMatched: recs.Result.InterestMatched(),
		Status:          domain.StatusSuccess,
	}
}

func (s *Service) batchFailure(customer *domain.Customer, err error) domain.BatchCustomerResult {
	s.logger.Error().Err(err).Str("customer_id", customer.ID).Msg("batch: recommendation failed")
	code, msg := CategorizeError(err)
	return domain.BatchCustomerResult{
		CustomerID: customer.ID,
		Status:     domain.StatusFailed,
		Error:      code,
		Message:    msg,
	}
}

// Ping checks the store and, when configured, the cache.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// CategorizeError maps an error to a stable code and a client-safe message.
func CategorizeError(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		return "customer_not_found", "customer not found"
	case errors.Is(err, domain.ErrInvalidOptions):
		return "invalid_options", err.Error()
	case errors.Is(err, domain.ErrEmptyCatalog):
		return "empty_catalog", "the product catalog is empty"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "request_timeout", "request timed out, please try again"
	case embedding.IsEmbeddingError(err):
		return "embedding_error", "similarity model failed to respond"
	}
	return "internal_error", "an unexpected error occurred"
}
