package batch

import (
	"path/filepath"
	"sync"
)

// Locks hands out one mutex per output path and forgets paths nobody
// holds. Share one Locks between batches that may write the same files.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock set.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free and returns the matching unlock function.
func (k *Locks) Lock(key string) func() {
	key = filepath.Clean(key)

	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size returns the number of tracked keys.
func (k *Locks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
