// Package appstate provides an explicit application-state object for values
// that used to live in process-wide singletons (company profile, catalog
// snapshots). State is owned by the session/request context, populated on
// first use, and explicitly invalidated after relevant mutations.
package appstate

import (
	"context"
	"sync"
)

// Loader populates a state entry on first access.
type Loader func(ctx context.Context) (any, error)

// State is a thread-safe lazily-populated key-value snapshot.
type State struct {
	mu      sync.RWMutex
	entries map[string]any
}

// New creates an empty State.
func New() *State {
	return &State{
		entries: make(map[string]any),
	}
}

// Get returns the cached value for key, calling load on first access.
// Concurrent callers for the same cold key may both invoke load; the
// last write wins, which is acceptable for snapshot data.
func (s *State) Get(ctx context.Context, key string, load Loader) (any, error) {
	s.mu.RLock()
	if v, ok := s.entries[key]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()

	return v, nil
}

// Invalidate drops the cached value for key. The next Get reloads it.
func (s *State) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Reset drops all cached values (logout, session end).
func (s *State) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]any)
	s.mu.Unlock()
}

type stateKey struct{}

// WithState adds State to context.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

// FromContext returns State from context, or nil if absent.
func FromContext(ctx context.Context) *State {
	if v, ok := ctx.Value(stateKey{}).(*State); ok {
		return v
	}
	return nil
}
