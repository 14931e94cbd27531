package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsightlab/finsight-go/internal/models"
)

// setupTestRedis creates a test Redis instance using miniredis.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		client.Close()
		s.Close()
	})
	return client, s
}

func testQuote(symbol string, price string) models.Quote {
	return models.Quote{
		Symbol:    symbol,
		Price:     decimal.RequireFromString(price),
		Currency:  "USD",
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRedisQuoteCache_SetAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisQuoteCache(client, 5*time.Minute)
	ctx := context.Background()

	q := testQuote("AAPL", "187.42")
	c.Set(ctx, q)

	got, found := c.Get(ctx, "AAPL")
	require.True(t, found)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.True(t, q.Price.Equal(got.Price))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestRedisQuoteCache_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisQuoteCache(client, 5*time.Minute)

	got, found := c.Get(context.Background(), "NOPE")
	assert.False(t, found)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisQuoteCache_TTLExpiry(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisQuoteCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, testQuote("TSLA", "242.10"))
	s.FastForward(2 * time.Minute)

	_, found := c.Get(ctx, "TSLA")
	assert.False(t, found, "expired entries are a miss, not stale data")
}

func TestRedisQuoteCache_CorruptEntryIsMiss(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisQuoteCache(client, time.Minute)

	require.NoError(t, s.Set("quote_cache:BAD", "not-json"))

	_, found := c.Get(context.Background(), "BAD")
	assert.False(t, found)
}

func TestRedisQuoteCache_InvalidateAndClear(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisQuoteCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, testQuote("AAPL", "187.42"))
	c.Set(ctx, testQuote("MSFT", "415.00"))

	require.NoError(t, c.Invalidate(ctx, "AAPL"))
	_, found := c.Get(ctx, "AAPL")
	assert.False(t, found)
	_, found = c.Get(ctx, "MSFT")
	assert.True(t, found)

	require.NoError(t, c.Clear(ctx))
	_, found = c.Get(ctx, "MSFT")
	assert.False(t, found)
}
