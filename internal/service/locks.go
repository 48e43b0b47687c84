package service

import "sync"

// lockMap hands out one mutex per key, created lazily. Room and user
// locks are never held across sink delivery or client I/O; entries are
// reclaimed explicitly when a room is retired.
type lockMap struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockMap() *lockMap {
	return &lockMap{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key and returns its unlock function.
func (l *lockMap) acquire(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// forget drops the mutex entry for key. Callers must hold the key's
// mutex when calling; a goroutine blocked on the old mutex still
// serializes against the holder, and later acquires get a fresh entry.
func (l *lockMap) forget(key string) {
	l.mu.Lock()
	delete(l.locks, key)
	l.mu.Unlock()
}
