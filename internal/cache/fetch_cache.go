package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc performs the actual external call on a cache miss.
type FetchFunc func(ctx context.Context) (interface{}, error)

// FetchCacheStats tracks cache performance counters.
type FetchCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Fills  int64 `json:"fills"`
	Errors int64 `json:"errors"`
	mu     sync.RWMutex
}

type entry struct {
	value      interface{}
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) valid(now time.Time) bool {
	return now.Sub(e.insertedAt) < e.ttl
}

// FetchCache is a TTL keyed cache wrapping expensive external fetches for
// one user session. A valid entry is served without invoking the fetch
// function; a miss invokes it exactly once even under concurrent callers
// for the same key (single-flight). Failures are never cached, so the
// next caller re-attempts the fetch.
type FetchCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	stats   *FetchCacheStats

	// now is replaceable in tests to exercise TTL expiry.
	now func() time.Time
}

// NewFetchCache creates an empty session-scoped fetch cache.
func NewFetchCache() *FetchCache {
	return &FetchCache{
		entries: make(map[string]entry),
		stats:   &FetchCacheStats{},
		now:     time.Now,
	}
}

// Key builds a deterministic cache key from a provider name and its
// request parameters. Parameter order does not matter.
func Key(provider string, params map[string]string) string {
	if len(params) == 0 {
		return provider
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(provider)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// GetOrFetch returns the cached value for key when a non-stale entry
// exists, without any external call. Otherwise it invokes fetch once,
// stores the result on success with the given ttl, and returns it. A
// failed or cancelled fetch stores nothing: cache writes are
// all-or-nothing.
func (c *FetchCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (interface{}, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()
	if ok && e.valid(now) {
		c.stats.mu.Lock()
		c.stats.Hits++
		c.stats.mu.Unlock()
		return e.value, nil
	}

	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have filled the entry while this caller was
		// queued behind it.
		c.mu.RLock()
		e, ok := c.entries[key]
		now := c.now()
		c.mu.RUnlock()
		if ok && e.valid(now) {
			return e.value, nil
		}

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry{value: v, insertedAt: c.now(), ttl: ttl}
		c.mu.Unlock()

		c.stats.mu.Lock()
		c.stats.Fills++
		c.stats.mu.Unlock()
		return v, nil
	})
	if err != nil {
		c.stats.mu.Lock()
		c.stats.Errors++
		c.stats.mu.Unlock()
		return nil, err
	}
	return value, nil
}

// Invalidate drops the entry for key, forcing the next GetOrFetch to
// re-fetch regardless of TTL. Used by explicit refresh actions.
func (c *FetchCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll drops every entry.
func (c *FetchCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of entries currently stored, stale ones
// included.
func (c *FetchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a copy of the current counters.
func (c *FetchCache) Stats() FetchCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return FetchCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Fills:  c.stats.Fills,
		Errors: c.stats.Errors,
	}
}
