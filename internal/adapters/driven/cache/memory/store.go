// Package memory provides an in-memory ItemCache. It backs tests and
// single-shot CLI runs where persistence across processes buys nothing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ItemCache = (*Store)(nil)

type entry struct {
	items     []domain.Item
	expiresAt time.Time // zero = no expiry
}

// Store is a mutex-guarded in-memory ItemCache with lazy expiry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewStore creates an empty in-memory cache.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the fresh items stored under key, or domain.ErrCacheMiss.
// Expired entries are evicted on read.
func (s *Store) Get(_ context.Context, key string) ([]domain.Item, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, domain.ErrCacheMiss
	}

	// Copy so callers cannot mutate cached state.
	items := make([]domain.Item, len(e.items))
	copy(items, e.items)
	return items, nil
}

// Put stores items under key, replacing any prior entry.
func (s *Store) Put(_ context.Context, key string, items []domain.Item, ttl time.Duration) error {
	stored := make([]domain.Item, len(items))
	copy(stored, items)

	e := entry{items: stored}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Close clears the cache.
func (s *Store) Close() error {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
	return nil
}
