package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/metrics"
)

// VectorStore is the part of go-redis Cached uses; *redis.Client satisfies it.
type VectorStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cached stores vectors produced by another Embedder in Redis. Cache errors
// are logged and never fail an Embed call.
type Cached struct {
	next   Embedder
	client VectorStore
	model  string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCached(next Embedder, client VectorStore, model string, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		next:   next,
		client: client,
		model:  model,
		ttl:    ttl,
		logger: logger.With().Str("component", "embedding_cache").Logger(),
	}
}

func vectorKey(model, text string) string {
	return fmt.Sprintf("emb:%s:%016x", model, xxhash.Sum64String(text))
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	key := vectorKey(c.model, text)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vec []float64
		if jsonErr := json.Unmarshal(data, &vec); jsonErr == nil && CheckVector(vec) == nil {
			metrics.CacheHits.WithLabelValues("embedding").Inc()
			return vec, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cached vector")
	case err != redis.Nil:
		c.logger.Warn().Err(err).Str("key", key).Msg("embedding cache read failed")
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("embedding cache write failed")
		}
	}
	return vec, nil
}
