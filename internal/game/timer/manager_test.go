package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewManager(clock, zerolog.Nop()), clock
}

func waitFired(t *testing.T, fired <-chan string) string {
	t.Helper()
	select {
	case key := <-fired:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
		return ""
	}
}

func assertNotFired(t *testing.T, fired <-chan string) {
	t.Helper()
	select {
	case key := <-fired:
		t.Fatalf("unexpected fire: %s", key)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleFiresAfterDelay(t *testing.T) {
	m, clock := newTestManager(t)
	fired := make(chan string, 1)

	m.Schedule("a", 5*time.Second, func() { fired <- "a" })

	clock.Advance(4 * time.Second)
	assertNotFired(t, fired)

	clock.Advance(time.Second)
	assert.Equal(t, "a", waitFired(t, fired))
}

func TestCancelPreventsFire(t *testing.T) {
	m, clock := newTestManager(t)
	fired := make(chan string, 1)

	m.Schedule("a", time.Second, func() { fired <- "a" })
	m.Cancel("a")

	clock.Advance(2 * time.Second)
	assertNotFired(t, fired)
	assert.False(t, m.Active("a"))
}

func TestCancelUnknownKeyIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	m.Cancel("missing")
}

func TestScheduleReplacesExisting(t *testing.T) {
	m, clock := newTestManager(t)
	fired := make(chan string, 2)

	m.Schedule("a", time.Second, func() { fired <- "first" })
	m.Schedule("a", 3*time.Second, func() { fired <- "second" })

	// The original deadline passes without the replaced callback running.
	clock.Advance(time.Second)
	assertNotFired(t, fired)

	clock.Advance(2 * time.Second)
	assert.Equal(t, "second", waitFired(t, fired))
	assertNotFired(t, fired)
}

func TestIndependentKeys(t *testing.T) {
	m, clock := newTestManager(t)
	fired := make(chan string, 2)

	m.Schedule("a", time.Second, func() { fired <- "a" })
	m.Schedule("b", 2*time.Second, func() { fired <- "b" })
	m.Cancel("a")

	clock.Advance(2 * time.Second)
	assert.Equal(t, "b", waitFired(t, fired))
	assertNotFired(t, fired)
}

func TestFiredKeyIsNoLongerActive(t *testing.T) {
	m, clock := newTestManager(t)
	fired := make(chan string, 1)

	m.Schedule("a", time.Second, func() { fired <- "a" })
	require.True(t, m.Active("a"))

	clock.Advance(time.Second)
	waitFired(t, fired)

	assert.Eventually(t, func() bool { return !m.Active("a") }, time.Second, 10*time.Millisecond)
}

func TestStopAll(t *testing.T) {
	m, clock := newTestManager(t)
	fired := make(chan string, 2)

	m.Schedule("a", time.Second, func() { fired <- "a" })
	m.Schedule("b", time.Second, func() { fired <- "b" })
	m.StopAll()

	clock.Advance(2 * time.Second)
	assertNotFired(t, fired)
	assert.False(t, m.Active("a"))
	assert.False(t, m.Active("b"))
}
