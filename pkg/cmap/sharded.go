package cmap

import (
	"hash/maphash"
	"iter"
	"sync"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Map is a concurrent-safe sharded map keyed by string.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint64
	seed   maphash.Seed
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// New creates a map with DefaultShardCount shards.
func New[V any]() *Map[V] {
	return NewWithShards[V](DefaultShardCount)
}

// NewWithShards creates a map with n shards. n must be a power of two;
// other values fall back to DefaultShardCount.
func NewWithShards[V any](n int) *Map[V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}
	m := &Map[V]{
		shards: make([]*shard[V], n),
		mask:   uint64(n - 1),
		seed:   maphash.MakeSeed(),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) shard(key string) *shard[V] {
	return m.shards[maphash.String(m.seed, key)&m.mask]
}

// Get returns the value stored for key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// GetOrCreate returns the value for key, storing create() first if the key
// is absent. create runs at most once per missing key, under the shard lock.
func (m *Map[V]) GetOrCreate(key string, create func() V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.items[key]; ok {
		return v
	}
	v := create()
	s.items[key] = v
	return v
}

// Delete removes key.
func (m *Map[V]) Delete(key string) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// DeleteFunc removes every entry for which del returns true and reports
// how many were removed. Shards are locked one at a time.
func (m *Map[V]) DeleteFunc(del func(key string, value V) bool) int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if del(k, v) {
				delete(s.items, k)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// All iterates over a snapshot of each shard in turn. Entries written while
// iterating may or may not be seen.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, s := range m.shards {
			s.mu.RLock()
			keys := make([]string, 0, len(s.items))
			vals := make([]V, 0, len(s.items))
			for k, v := range s.items {
				keys = append(keys, k)
				vals = append(vals, v)
			}
			s.mu.RUnlock()

			for i := range keys {
				if !yield(keys[i], vals[i]) {
					return
				}
			}
		}
	}
}
