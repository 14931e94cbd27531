package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/models"
)

// QuoteCacheStats tracks quote cache performance counters.
type QuoteCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// quoteEntry is the wire form of a cached quote with its metadata.
type quoteEntry struct {
	Quote    models.Quote `json:"quote"`
	CachedAt time.Time    `json:"cached_at"`
}

// RedisQuoteCache caches latest quotes in Redis so that concurrent user
// sessions asking for the same symbol share one upstream call. Unlike the
// session FetchCache it survives process restarts; staleness is enforced
// by the Redis key TTL alone.
type RedisQuoteCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *QuoteCacheStats
	prefix string
}

// NewRedisQuoteCache creates a Redis-backed quote cache.
func NewRedisQuoteCache(redisClient *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &QuoteCacheStats{},
		prefix: "quote_cache:",
	}
}

// Get retrieves the cached quote for a symbol. The second return value
// reports whether a usable entry was found.
func (c *RedisQuoteCache) Get(ctx context.Context, symbol string) (*models.Quote, bool) {
	data, err := c.redis.Get(ctx, c.prefix+symbol).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		logrus.WithError(err).WithField("symbol", symbol).Warn("quote cache read failed")
		c.miss()
		return nil, false
	}

	var e quoteEntry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		logrus.WithError(err).WithField("symbol", symbol).Warn("quote cache entry corrupt")
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return &e.Quote, true
}

// Set stores a quote with the cache TTL.
func (c *RedisQuoteCache) Set(ctx context.Context, quote models.Quote) {
	data, err := json.Marshal(quoteEntry{Quote: quote, CachedAt: time.Now()})
	if err != nil {
		logrus.WithError(err).WithField("symbol", quote.Symbol).Warn("quote cache marshal failed")
		return
	}
	if err := c.redis.Set(ctx, c.prefix+quote.Symbol, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("symbol", quote.Symbol).Warn("quote cache write failed")
		return
	}
	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Invalidate removes the cached quote for a symbol.
func (c *RedisQuoteCache) Invalidate(ctx context.Context, symbol string) error {
	return c.redis.Del(ctx, c.prefix+symbol).Err()
}

// Clear removes every cached quote.
func (c *RedisQuoteCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning quote cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing quote cache: %w", err)
	}
	return nil
}

// Stats returns a copy of the current counters.
func (c *RedisQuoteCache) Stats() QuoteCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return QuoteCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

func (c *RedisQuoteCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
