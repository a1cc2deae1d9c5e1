// Package timer provides a keyed, cancellable delayed-callback scheduler.
// Keys are namespaced by the caller (match:, expiry:, disconnect:) so the
// three timer families never collide.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Manager schedules one-shot callbacks under string keys. Scheduling a key
// that already has a live timer replaces it (cancel-then-set); cancelling an
// absent key is a no-op. Callbacks run on their own goroutine and must
// re-validate any state they act on.
type Manager struct {
	clock  clockwork.Clock
	logger zerolog.Logger

	mu     sync.Mutex
	timers map[string]*entry
}

type entry struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// NewManager creates a timer manager on the given clock.
func NewManager(clock clockwork.Clock, logger zerolog.Logger) *Manager {
	return &Manager{
		clock:  clock,
		logger: logger.With().Str("component", "timer").Logger(),
		timers: make(map[string]*entry),
	}
}

// Schedule arms fn to run after delay, replacing any timer already under key.
// A non-positive delay fires immediately (still asynchronously).
func (m *Manager) Schedule(key string, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}

	e := &entry{
		timer:  m.clock.NewTimer(delay),
		cancel: make(chan struct{}),
	}

	m.mu.Lock()
	if old, exists := m.timers[key]; exists {
		stopAndDrain(old.timer)
		close(old.cancel)
	}
	m.timers[key] = e
	m.mu.Unlock()

	go func() {
		select {
		case <-e.timer.Chan():
			m.remove(key, e)
			m.logger.Debug().Str("key", key).Msg("timer fired")
			fn()
		case <-e.cancel:
		}
	}()
}

// Cancel stops and removes the timer under key, if any.
func (m *Manager) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, exists := m.timers[key]; exists {
		stopAndDrain(e.timer)
		close(e.cancel)
		delete(m.timers, key)
		m.logger.Debug().Str("key", key).Msg("timer cancelled")
	}
}

// Active reports whether a live timer exists under key.
func (m *Manager) Active(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.timers[key]
	return exists
}

// StopAll cancels every pending timer. Used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.timers {
		stopAndDrain(e.timer)
		close(e.cancel)
		delete(m.timers, key)
	}
}

// remove drops the entry for key, but only if it is still e. A Schedule that
// replaced the entry between fire and removal must not lose its new timer.
func (m *Manager) remove(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.timers[key]; exists && current == e {
		delete(m.timers, key)
	}
}

// stopAndDrain stops a timer and drains its channel so the waiting goroutine
// cannot observe a late fire.
func stopAndDrain(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
