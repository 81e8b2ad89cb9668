// Package ratelimit implements a sliding-window counter keyed by client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore records attempts in a rolling window. Allow reports whether one
// more attempt fits under limit and, only if it does, records it at now.
type CounterStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error)
}

// MemoryStore keeps timestamps per key in process memory. State is lost on restart
// and is not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]time.Time)}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := trim(s.entries[key], window, now)
	if len(live) >= limit {
		s.entries[key] = live
		return false, nil
	}
	s.entries[key] = append(live, now)
	return true, nil
}

// Prune drops timestamps that left the window and forgets keys with none left.
// It returns the number of keys removed.
func (s *MemoryStore) Prune(window time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, times := range s.entries {
		live := trim(times, window, now)
		if len(live) == 0 {
			delete(s.entries, key)
			removed++
			continue
		}
		s.entries[key] = live
	}
	return removed
}

// Len is the number of keys currently tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// trim keeps entries with now - t < window. Entries are in insertion order.
func trim(times []time.Time, window time.Duration, now time.Time) []time.Time {
	i := 0
	for i < len(times) && now.Sub(times[i]) >= window {
		i++
	}
	if i == 0 {
		return times
	}
	live := make([]time.Time, len(times)-i)
	copy(live, times[i:])
	return live
}
