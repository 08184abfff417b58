package ledger

import "sync"

// keyedMutex hands out one read/write mutex per key and frees it when no
// caller holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.RWMutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is held exclusively and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	m := k.acquire(key)
	m.Lock()
	return func() {
		m.Unlock()
		k.release(key, m)
	}
}

// RLock blocks until key is held shared. Any number of readers may hold a key
// while no writer does.
func (k *keyedMutex) RLock(key string) func() {
	m := k.acquire(key)
	m.RLock()
	return func() {
		m.RUnlock()
		k.release(key, m)
	}
}

func (k *keyedMutex) acquire(key string) *refMutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	return m
}

func (k *keyedMutex) release(key string, m *refMutex) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
}
