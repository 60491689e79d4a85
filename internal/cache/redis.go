package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const defaultTTL = 10 * time.Minute

// Client is the part of go-redis the cache uses; *redis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

type Cache struct {
	client Client
	ttl    time.Duration
}

func NewCache(client Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and returns a client.
func Connect(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// buildKey scopes entries by customer. fingerprint identifies the request
// options.
func buildKey(customerID, fingerprint string) string {
	return fmt.Sprintf("rec:customer:%016x:opts:%016x", xxhash.Sum64String(customerID), xxhash.Sum64String(fingerprint))
}

// Get returns the cached result and whether one was found.
func (c *Cache) Get(ctx context.Context, customerID, fingerprint string) (*domain.RecommendationResult, bool, error) {
	key := buildKey(customerID, fingerprint)
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendations from cache: %w", err)
	}

	var res domain.RecommendationResult
	if err := json.Unmarshal(val, &res); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal recommendations %s: %w", key, err)
	}
	return &res, true, nil
}

func (c *Cache) Set(ctx context.Context, customerID, fingerprint string, res *domain.RecommendationResult) error {
	key := buildKey(customerID, fingerprint)
	val, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set recommendations in cache: %w", err)
	}
	return nil
}

// ClearAll drops every cached result, used after a catalog import.
func (c *Cache) ClearAll(ctx context.Context) error {
	return c.deleteMatching(ctx, "rec:customer:*")
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
