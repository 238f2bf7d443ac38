package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSessions bounds the sessions a Manager holds.
const DefaultMaxSessions = 10_000

// ManagerConfig configures a Manager.
type ManagerConfig[S any] struct {
	// MaxSessions is the number of sessions kept before the least recently
	// used one is evicted. Default: 10000.
	MaxSessions int

	// New creates the value of a session seen for the first time.
	New func(id string) S

	// OnEvict is called when a session leaves the manager, whether by
	// eviction or Purge.
	OnEvict func(id string, s S)
}

// Manager holds session values by ID.
type Manager[S any] struct {
	mu    sync.Mutex
	cache *lru.Cache[string, S]
	new   func(id string) S
}

// NewManager creates a manager. cfg.New is required.
func NewManager[S any](cfg ManagerConfig[S]) *Manager[S] {
	size := cfg.MaxSessions
	if size <= 0 {
		size = DefaultMaxSessions
	}
	// Only fails for a non-positive size.
	cache, _ := lru.NewWithEvict[string, S](size, cfg.OnEvict)
	return &Manager[S]{cache: cache, new: cfg.New}
}

// Get returns the session for id, creating it on first use. created
// reports whether it was just created.
func (m *Manager[S]) Get(id string) (s S, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.cache.Get(id); ok {
		return s, false
	}
	s = m.new(id)
	m.cache.Add(id, s)
	return s, true
}

// Len returns the number of sessions held.
func (m *Manager[S]) Len() int {
	return m.cache.Len()
}

// Purge drops every session.
func (m *Manager[S]) Purge() {
	m.cache.Purge()
}
