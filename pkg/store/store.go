package store

import "sync"

// Store is the single mutable AppState of a session.
type Store struct {
	mu    sync.RWMutex
	state State
	merge MergeFunc
	ready chan struct{}
	once  sync.Once
	onSet []func(State)
}

// Option configures a Store.
type Option func(*Store)

// WithBeforeUpdate replaces the default shallow merge.
func WithBeforeUpdate(fn MergeFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.merge = fn
		}
	}
}

// WithSubscriber registers a function called with every committed state.
func WithSubscriber(fn func(State)) Option {
	return func(s *Store) {
		s.onSet = append(s.onSet, fn)
	}
}

// New creates a store holding initial. The store is not ready until the
// first Update or MarkReady.
func New(initial State, opts ...Option) *Store {
	s := &Store{
		state: initial.clone(),
		merge: Merge,
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the latest committed state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Update merges p into the state and returns the committed result.
// It is the only write path of the store.
func (s *Store) Update(p Patch) State {
	s.mu.Lock()
	next := s.merge(s.state.clone(), p)
	s.state = next
	subs := s.onSet
	s.mu.Unlock()

	s.MarkReady()
	for _, fn := range subs {
		fn(next.clone())
	}
	return next.clone()
}

// Use returns the current state and its setter.
func (s *Store) Use() (State, func(Patch)) {
	return s.Snapshot(), func(p Patch) { s.Update(p) }
}

// MarkReady opens the readiness gate. Safe to call more than once.
func (s *Store) MarkReady() {
	s.once.Do(func() { close(s.ready) })
}

// Ready returns a channel closed once the state has been populated.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// IsReady reports whether the readiness gate is open.
func (s *Store) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}
