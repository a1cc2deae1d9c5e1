package game

import "sync"

// sessionLocks serializes all mutating operations on a given session id.
// Timer callbacks and connection-driven operations take the same lock, so a
// session only ever sees one validate-mutate transition at a time.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the session's lock is held and returns the release
// function. Lock entries are never reclaimed; session ids are short-lived
// and bounded by the store's TTL in practice.
func (l *sessionLocks) acquire(sessionID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
