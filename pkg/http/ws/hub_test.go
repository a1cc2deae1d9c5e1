package ws

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRoomMembership(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	u1 := uuid.New()
	u2 := uuid.New()

	hub.JoinRoom(u1, "s1")
	hub.JoinRoom(u2, "s1")
	hub.JoinRoom(u1, "s2")

	assert.True(t, hub.InRoom("s1", u1))
	assert.True(t, hub.InRoom("s1", u2))
	assert.True(t, hub.InRoom("s2", u1))
	assert.False(t, hub.InRoom("s2", u2))

	assert.ElementsMatch(t, []string{"s1", "s2"}, hub.RoomsOf(u1))
	assert.ElementsMatch(t, []string{"s1"}, hub.RoomsOf(u2))
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	u1 := uuid.New()

	hub.JoinRoom(u1, "s1")
	hub.JoinRoom(u1, "s1")

	assert.Equal(t, []string{"s1"}, hub.RoomsOf(u1))
}

func TestLeaveRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	u1 := uuid.New()

	hub.JoinRoom(u1, "s1")
	hub.LeaveRoom(u1, "s1")

	assert.False(t, hub.InRoom("s1", u1))
	assert.Empty(t, hub.RoomsOf(u1))

	// Leaving a room twice, or one that never existed, is harmless.
	hub.LeaveRoom(u1, "s1")
	hub.LeaveRoom(u1, "never")
}

func TestSendToUnknownUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	err := hub.SendToUser(uuid.New(), NewMessage(TypeQueueStatus, QueueStatusPayload{Size: 1}))
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestBroadcastToRoomWithoutConnections(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	u1 := uuid.New()
	hub.JoinRoom(u1, "s1")

	// Room members without a registered connection surface the first error.
	err := hub.Broadcast("s1", NewMessage(TypeQueueStatus, QueueStatusPayload{Size: 1}))
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	// An empty room broadcast is a no-op.
	assert.NoError(t, hub.Broadcast("empty", NewMessage(TypeQueueStatus, QueueStatusPayload{Size: 0})))
}
