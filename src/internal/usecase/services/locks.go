package services

import (
	"sort"
	"sync"
)

// EntityLocks serializes work on individual movements and receivables so
// that split resolution and posting for the same entity never interleave,
// whichever repository backend is underneath. Keys are locked in sorted
// order to keep multi-entity acquisitions deadlock-free.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks every key and returns the release function. Duplicate keys
// are collapsed.
func (l *EntityLocks) Acquire(keys ...string) func() {
	unique := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		unique[key] = struct{}{}
	}

	ordered := make([]string, 0, len(unique))
	for key := range unique {
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		mu := l.lockFor(key)
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *EntityLocks) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[key] = mu
	}
	return mu
}
