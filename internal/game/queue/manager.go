// Package queue implements the matchmaking queue for random opponents.
package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a player waiting for an opponent.
type Entry struct {
	UserID   uuid.UUID
	Username string
	JoinedAt time.Time
}

// Manager is a FIFO queue of waiting players. A user appears at most once;
// re-enqueueing moves them to the back. All methods are safe for concurrent
// use.
type Manager struct {
	mu      sync.Mutex
	waiting []Entry
}

// NewManager creates an empty matchmaking queue.
func NewManager() *Manager {
	return &Manager{}
}

// Enqueue adds the player to the back of the queue, replacing any earlier
// entry for the same user, then attempts to pair the two oldest waiters.
// When a pair forms both entries are removed and returned with ok true.
func (m *Manager) Enqueue(e Entry) (a, b Entry, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(e.UserID)
	m.waiting = append(m.waiting, e)

	if len(m.waiting) < 2 {
		return Entry{}, Entry{}, false
	}

	a, b = m.waiting[0], m.waiting[1]
	m.waiting = m.waiting[2:]
	return a, b, true
}

// Dequeue removes the user from the queue. Returns false if they were not
// waiting.
func (m *Manager) Dequeue(userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(userID)
}

// Size reports how many players are waiting.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}

func (m *Manager) removeLocked(userID uuid.UUID) bool {
	for i, e := range m.waiting {
		if e.UserID == userID {
			m.waiting = append(m.waiting[:i], m.waiting[i+1:]...)
			return true
		}
	}
	return false
}
