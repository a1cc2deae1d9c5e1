package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, zerolog.Nop())
}

func waitingSession(id string, creator uuid.UUID) *Session {
	return &Session{
		ID:              id,
		CreatorID:       creator,
		Players:         []Player{{UserID: creator, Username: "alice"}},
		DurationSeconds: 60,
		Status:          StatusWaiting,
		Problems:        []Problem{},
		CurrentProblem:  -1,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestStoreInsertAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	creator := uuid.New()
	sess := waitingSession("abc123", creator)
	require.NoError(t, store.Insert(ctx, sess))

	got, err := store.FindByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, creator, got.CreatorID)
	assert.Equal(t, StatusWaiting, got.Status)
	assert.Equal(t, -1, got.CurrentProblem)
	assert.Len(t, got.Players, 1)
}

func TestStoreInsertDuplicateFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := waitingSession("abc123", uuid.New())
	require.NoError(t, store.Insert(ctx, sess))
	assert.Error(t, store.Insert(ctx, sess))
}

func TestStoreFindMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := waitingSession("abc123", uuid.New())
	require.NoError(t, store.Insert(ctx, sess))

	sess.Status = StatusActive
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.FindByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestStoreUpdateIfStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := waitingSession("abc123", uuid.New())
	require.NoError(t, store.Insert(ctx, sess))

	updated, err := store.UpdateIfStatus(ctx, "abc123", StatusWaiting, ErrAlreadyStarted, func(s *Session) error {
		s.Status = StatusActive
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, updated.Status)

	got, err := store.FindByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestStoreUpdateIfStatusConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := waitingSession("abc123", uuid.New())
	sess.Status = StatusActive
	require.NoError(t, store.Insert(ctx, sess))

	_, err := store.UpdateIfStatus(ctx, "abc123", StatusWaiting, ErrAlreadyStarted, func(s *Session) error {
		s.Status = StatusCompleted
		return nil
	})
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	got, err := store.FindByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestStoreUpdateIfStatusMutatorErrorAbortsWrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := waitingSession("abc123", uuid.New())
	require.NoError(t, store.Insert(ctx, sess))

	_, err := store.UpdateIfStatus(ctx, "abc123", StatusWaiting, ErrAlreadyStarted, func(s *Session) error {
		s.Status = StatusActive
		return ErrNotEnoughPlayers
	})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	got, err := store.FindByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, got.Status)
}

func TestStoreUpdateIfStatusMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateIfStatus(context.Background(), "nope", StatusWaiting, ErrAlreadyStarted, func(s *Session) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreUserSessionsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	store.AddUserSession(ctx, userID, "first")
	store.AddUserSession(ctx, userID, "second")
	store.AddUserSession(ctx, userID, "third")

	ids, err := store.UserSessions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, ids)
}

func TestStoreUserSessionsCapped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < userSessionHistory+5; i++ {
		store.AddUserSession(ctx, userID, fmt.Sprintf("s%d", i))
	}

	ids, err := store.UserSessions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, ids, userSessionHistory)
	assert.Equal(t, fmt.Sprintf("s%d", userSessionHistory+4), ids[0])
}
