package services

import "sync"

// keyedMutex serializes work per auction id while leaving different
// auctions free to proceed in parallel. Entries are created lazily and
// kept for the process lifetime; the population is bounded by the
// number of auctions ever touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) {
	k.get(key).Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	return lock
}
