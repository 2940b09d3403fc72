// Package inmemorycache provides an ephemeral, thread-safe, in-memory
// implementation of the evalcache.Store interface.
//
// # Concurrency Model
//
// The store uses sync.Map rather than a mutex-guarded map because the
// workload is read-mostly with independent keys: evaluation sweeps read many
// entries, mutation commits evict a few, and distinct node ids never
// contend. Clear swaps the whole map out under a small guard instead of
// range-deleting.
//
// # When to Use
//
// Suitable wherever derived patterns fit in memory, which is every local
// session. A shared external cache would need a different implementation
// behind the same interface.
package inmemorycache

import (
	"sync"

	"github.com/vk/patterngridgo/internal/evalcache"
	"github.com/vk/patterngridgo/internal/pattern"
)

// entry is one cached evaluation outcome. pattern stays nil for remembered
// failures.
type entry struct {
	pattern *pattern.Pattern
	stamp   uint64
}

// Store is an in-memory evalcache.Store backed by sync.Map.
type Store struct {
	mu      sync.Mutex // guards replacing entries on Clear
	entries *sync.Map
}

// New creates a new, empty in-memory result cache.
func New() evalcache.Store {
	return &Store{entries: &sync.Map{}}
}

// Load returns the cached outcome for a node, if any.
func (s *Store) Load(id string) (*pattern.Pattern, uint64, bool) {
	v, ok := s.current().Load(id)
	if !ok {
		return nil, 0, false
	}
	e := v.(*entry)
	return e.pattern, e.stamp, true
}

// StoreResult records an evaluation outcome, overwriting any prior entry.
func (s *Store) StoreResult(id string, p *pattern.Pattern, stamp uint64) {
	s.current().Store(id, &entry{pattern: p, stamp: stamp})
}

// Evict drops a single entry.
func (s *Store) Evict(id string) {
	s.current().Delete(id)
}

// Clear drops every entry by swapping in a fresh map.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = &sync.Map{}
}

func (s *Store) current() *sync.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}
