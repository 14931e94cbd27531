package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCache_HitWithinTTL(t *testing.T) {
	c := NewFetchCache()
	ctx := context.Background()

	var calls int64
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		return "payload", nil
	}

	v1, err := c.GetOrFetch(ctx, "quote|symbol=AAPL", time.Minute, fetch)
	require.NoError(t, err)
	v2, err := c.GetOrFetch(ctx, "quote|symbol=AAPL", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, "payload", v1)
	assert.Equal(t, "payload", v2)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "second call within TTL must not fetch")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Fills)
}

func TestFetchCache_StaleEntryRefetched(t *testing.T) {
	c := NewFetchCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	var calls int64
	fetch := func(ctx context.Context) (interface{}, error) {
		return atomic.AddInt64(&calls, 1), nil
	}

	v, err := c.GetOrFetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// Jump past the TTL: entry is stale and must be replaced, not merged.
	now = now.Add(time.Minute + time.Second)

	v, err = c.GetOrFetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
	assert.Equal(t, 1, c.Len(), "refetch overwrites the entry")
}

func TestFetchCache_FailureNotCached(t *testing.T) {
	c := NewFetchCache()
	ctx := context.Background()

	boom := errors.New("upstream down")
	var calls int64
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		return nil, boom
	}

	_, err := c.GetOrFetch(ctx, "k", time.Minute, fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len(), "failures are never cached")

	// The next caller re-attempts: no negative caching.
	_, err = c.GetOrFetch(ctx, "k", time.Minute, fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestFetchCache_SingleFlight(t *testing.T) {
	c := NewFetchCache()
	ctx := context.Background()

	var calls int64
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return "shared", nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]interface{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(ctx, "k", time.Minute, fetch)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let every goroutine queue up behind the first flight before it
	// completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent callers for one key share one fetch")
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestFetchCache_Invalidate(t *testing.T) {
	c := NewFetchCache()
	ctx := context.Background()

	var calls int64
	fetch := func(ctx context.Context) (interface{}, error) {
		return atomic.AddInt64(&calls, 1), nil
	}

	_, err := c.GetOrFetch(ctx, "k", time.Hour, fetch)
	require.NoError(t, err)

	c.Invalidate("k")

	v, err := c.GetOrFetch(ctx, "k", time.Hour, fetch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v, "invalidate forces a refetch regardless of TTL")
}

func TestFetchCache_InvalidateAll(t *testing.T) {
	c := NewFetchCache()
	ctx := context.Background()

	fetch := func(ctx context.Context) (interface{}, error) { return "v", nil }
	_, err := c.GetOrFetch(ctx, "a", time.Hour, fetch)
	require.NoError(t, err)
	_, err = c.GetOrFetch(ctx, "b", time.Hour, fetch)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestFetchCache_CancelledFetchStoresNothing(t *testing.T) {
	c := NewFetchCache()
	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(ctx context.Context) (interface{}, error) {
		cancel()
		return nil, ctx.Err()
	}

	_, err := c.GetOrFetch(ctx, "k", time.Minute, fetch)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Len(), "a cancelled fetch must never populate the cache")
}

func TestKey_OrderIndependent(t *testing.T) {
	a := Key("history", map[string]string{"symbol": "AAPL", "from": "2024-01-01", "to": "2024-06-30"})
	b := Key("history", map[string]string{"to": "2024-06-30", "from": "2024-01-01", "symbol": "AAPL"})
	assert.Equal(t, a, b)

	c := Key("history", map[string]string{"symbol": "MSFT", "from": "2024-01-01", "to": "2024-06-30"})
	assert.NotEqual(t, a, c)

	assert.Equal(t, "news", Key("news", nil))
}
