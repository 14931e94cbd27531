package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finsightlab/finsight-go/internal/cache"
	"github.com/finsightlab/finsight-go/internal/utils"
)

// WatchlistRepository persists (owner, symbol) pairs. Add reports whether
// the pair was newly inserted; adding an existing pair must not create a
// duplicate row.
type WatchlistRepository interface {
	Add(ctx context.Context, ownerID, symbol string) (bool, error)
	Remove(ctx context.Context, ownerID, symbol string) error
	List(ctx context.Context, ownerID string) ([]string, error)
}

// SymbolValidator answers whether a symbol is a real tradable instrument.
// Implemented by the market-data provider; the lookup is an external call
// and is therefore routed through the session fetch cache.
type SymbolValidator interface {
	IsTradable(ctx context.Context, symbol string) (bool, error)
}

// WatchlistStore maintains per-owner sets of tracked symbols. Duplicate
// adds are idempotent successes; removes of absent symbols are no-ops.
type WatchlistStore struct {
	repo        WatchlistRepository
	validator   SymbolValidator
	fetchCache  *cache.FetchCache
	validityTTL time.Duration
}

// NewWatchlistStore creates a watchlist store over repo. validator may be
// nil to skip instrument validation; fetchCache may be nil to validate
// without caching.
func NewWatchlistStore(repo WatchlistRepository, validator SymbolValidator, fetchCache *cache.FetchCache, validityTTL time.Duration) *WatchlistStore {
	return &WatchlistStore{
		repo:        repo,
		validator:   validator,
		fetchCache:  fetchCache,
		validityTTL: validityTTL,
	}
}

// Add tracks symbol for ownerID. Adding a symbol already tracked is a
// no-op success. When a validator is configured, unknown symbols are
// rejected with InvalidSymbolError; the validity lookup result is cached.
func (s *WatchlistStore) Add(ctx context.Context, ownerID, symbol string) error {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return utils.NewInvalidSymbolError(symbol)
	}

	if s.validator != nil {
		tradable, err := s.checkTradable(ctx, symbol)
		if err != nil {
			return err
		}
		if !tradable {
			return utils.NewInvalidSymbolError(symbol)
		}
	}

	_, err := s.repo.Add(ctx, ownerID, symbol)
	return err
}

// Remove stops tracking symbol for ownerID; no-op when absent.
func (s *WatchlistStore) Remove(ctx context.Context, ownerID, symbol string) error {
	return s.repo.Remove(ctx, ownerID, normalizeSymbol(symbol))
}

// List returns the tracked symbols for ownerID, sorted.
func (s *WatchlistStore) List(ctx context.Context, ownerID string) ([]string, error) {
	symbols, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *WatchlistStore) checkTradable(ctx context.Context, symbol string) (bool, error) {
	if s.fetchCache == nil {
		return s.validator.IsTradable(ctx, symbol)
	}
	key := cache.Key("symbol-validity", map[string]string{"symbol": symbol})
	v, err := s.fetchCache.GetOrFetch(ctx, key, s.validityTTL, func(ctx context.Context) (interface{}, error) {
		return s.validator.IsTradable(ctx, symbol)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// MemoryWatchlistRepository is a process-local WatchlistRepository used
// for sessions without persistent storage and in tests.
type MemoryWatchlistRepository struct {
	mu      sync.Mutex
	entries map[string]map[string]struct{}
}

// NewMemoryWatchlistRepository creates an empty in-memory repository.
func NewMemoryWatchlistRepository() *MemoryWatchlistRepository {
	return &MemoryWatchlistRepository{entries: make(map[string]map[string]struct{})}
}

// Add inserts the pair, reporting whether it was new.
func (r *MemoryWatchlistRepository) Add(ctx context.Context, ownerID, symbol string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.entries[ownerID]
	if !ok {
		set = make(map[string]struct{})
		r.entries[ownerID] = set
	}
	if _, exists := set[symbol]; exists {
		return false, nil
	}
	set[symbol] = struct{}{}
	return true, nil
}

// Remove deletes the pair; no-op when absent.
func (r *MemoryWatchlistRepository) Remove(ctx context.Context, ownerID, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.entries[ownerID]; ok {
		delete(set, symbol)
	}
	return nil
}

// List returns the owner's symbols in unspecified order.
func (r *MemoryWatchlistRepository) List(ctx context.Context, ownerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.entries[ownerID]
	out := make([]string, 0, len(set))
	for symbol := range set {
		out = append(out, symbol)
	}
	return out, nil
}
