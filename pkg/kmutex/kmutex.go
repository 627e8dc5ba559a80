// Package kmutex provides mutexes keyed by string, so independent keys
// (products, orders) never contend with each other while operations on the
// same key serialize.
package kmutex

import "sync"

// KMutex hands out one mutex per key, created lazily and kept for the
// lifetime of the process. The key space here (product and order IDs) is
// small enough that eviction is not worth the bookkeeping.
type KMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty KMutex.
func New() *KMutex {
	return &KMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (k *KMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key. Panics if the key was never locked,
// same as unlocking an unlocked sync.Mutex.
func (k *KMutex) Unlock(key string) {
	k.get(key).Unlock()
}
