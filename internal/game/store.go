package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	sessionTTL         = 24 * time.Hour
	userSessionHistory = 20
)

// SessionStore keeps session records in Redis, keyed by session id, with
// read-after-write consistency. All mutating callers hold the per-session
// lock, so load-mutate-save sequences never interleave; UpdateIfStatus
// additionally re-validates status for timer-raced transitions.
type SessionStore struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewSessionStore creates a session store backed by Redis.
func NewSessionStore(rdb *redis.Client, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		redis:  rdb,
		logger: logger.With().Str("component", "session_store").Logger(),
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID uuid.UUID) string {
	return "user:" + userID.String() + ":sessions"
}

// Insert persists a new session. Fails if the id already exists.
func (s *SessionStore) Insert(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, sessionKey(sess.ID), data, sessionTTL).Result()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session id %s already exists", sess.ID)
	}
	return nil
}

// FindByID retrieves a session, or ErrSessionNotFound.
func (s *SessionStore) FindByID(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save overwrites a session record.
func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.redis.Set(ctx, sessionKey(sess.ID), data, sessionTTL).Err()
}

// UpdateIfStatus loads the session, verifies its status matches expected,
// applies the mutator and persists the result. A status mismatch returns
// onConflict and leaves the record untouched; a mutator error aborts the
// write and is returned as-is.
func (s *SessionStore) UpdateIfStatus(ctx context.Context, id, expectedStatus string, onConflict error, mutate func(*Session) error) (*Session, error) {
	sess, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.Status != expectedStatus {
		return nil, onConflict
	}

	if err := mutate(sess); err != nil {
		return nil, err
	}

	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AddUserSession records a session id in the user's recent-session index.
func (s *SessionStore) AddUserSession(ctx context.Context, userID uuid.UUID, sessionID string) {
	key := userSessionsKey(userID)
	pipe := s.redis.Pipeline()
	pipe.LPush(ctx, key, sessionID)
	pipe.LTrim(ctx, key, 0, userSessionHistory-1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to index user session")
	}
}

// UserSessions lists the user's most recent session ids, newest first.
func (s *SessionStore) UserSessions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	ids, err := s.redis.LRange(ctx, userSessionsKey(userID), 0, userSessionHistory-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return ids, nil
}
