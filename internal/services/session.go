package services

import (
	"sync"
	"time"

	"github.com/finsightlab/finsight-go/internal/cache"
	"github.com/finsightlab/finsight-go/internal/models"
)

// SessionContext owns the per-session state for one user: the fetch
// cache, the position ledger, the watchlist view, and the report
// aggregator. Nothing in it is shared across users or stored in process
// globals.
type SessionContext struct {
	OwnerID   string
	Cache     *cache.FetchCache
	Ledger    *PositionLedger
	Watchlist *WatchlistStore
	Report    *ReportAggregator

	createdAt time.Time
	lastSeen  time.Time
}

// SessionFactory builds the session state for an owner, typically loading
// persisted holdings into the ledger.
type SessionFactory func(ownerID string) (*SessionContext, error)

// SessionManager hands out SessionContexts keyed by owner and expires
// them after an idle period.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*SessionContext
	factory  SessionFactory
	idleTTL  time.Duration
	now      func() time.Time
}

// NewSessionManager creates a session manager. Sessions idle longer than
// idleTTL are dropped by Sweep.
func NewSessionManager(factory SessionFactory, idleTTL time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*SessionContext),
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Get returns the owner's session, creating it on first use.
func (m *SessionManager) Get(ownerID string) (*SessionContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[ownerID]; ok {
		s.lastSeen = m.now()
		return s, nil
	}

	s, err := m.factory(ownerID)
	if err != nil {
		return nil, err
	}
	now := m.now()
	s.createdAt = now
	s.lastSeen = now
	m.sessions[ownerID] = s
	return s, nil
}

// Drop discards the owner's session immediately.
func (m *SessionManager) Drop(ownerID string) {
	m.mu.Lock()
	delete(m.sessions, ownerID)
	m.mu.Unlock()
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were dropped.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.idleTTL)
	dropped := 0
	for owner, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, owner)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// NewSessionContext wires a fresh session for ownerID with the given
// collaborators, seeding the ledger from persisted holdings.
func NewSessionContext(ownerID string, holdings []models.Holding, watchRepo WatchlistRepository, validator SymbolValidator, validityTTL time.Duration) *SessionContext {
	fetchCache := cache.NewFetchCache()
	return &SessionContext{
		OwnerID:   ownerID,
		Cache:     fetchCache,
		Ledger:    NewPositionLedgerFromHoldings(holdings),
		Watchlist: NewWatchlistStore(watchRepo, validator, fetchCache, validityTTL),
		Report:    NewReportAggregator(),
	}
}
