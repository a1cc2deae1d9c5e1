package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/game/timer"
)

const sessionIDLength = 12

// benign timer-race outcomes; logged at debug level, never surfaced.
var (
	errAutoStartAborted = errors.New("auto start aborted")
	errExpiryStale      = errors.New("expiry no longer applies")
)

// StatsRecorder persists per-user career totals when a session completes.
type StatsRecorder interface {
	IncrementGamesPlayed(ctx context.Context, userID uuid.UUID) error
	IncrementGamesWon(ctx context.Context, userID uuid.UUID) error
}

// Presence reports whether a user currently has a live connection in a
// session's room. The disconnect grace timer consults it before ending a
// session, so a reconnect within the grace window is a clean no-op.
type Presence interface {
	InRoom(sessionID string, userID uuid.UUID) bool
}

// Options tune the orchestrator's timing behavior.
type Options struct {
	// MatchCountdown is the delay between a random match forming and the
	// session auto-starting.
	MatchCountdown time.Duration
	// DisconnectGrace is how long a disconnected player has to reconnect
	// before their active session is ended.
	DisconnectGrace time.Duration
	// RandomMatchDuration is the fixed length of matched sessions.
	RandomMatchDuration time.Duration
}

// Service orchestrates the session lifecycle: creation, joining, the
// round cycle and termination. Every mutating path serializes on the
// per-session lock, including timer callbacks, so state transitions are
// atomic and forward-only.
type Service struct {
	store     *SessionStore
	generator *Generator
	timers    *timer.Manager
	locks     *sessionLocks
	events    EventSink
	stats     StatsRecorder
	presence  Presence
	clock     clockwork.Clock
	opts      Options
	logger    zerolog.Logger
}

// NewService wires the session orchestrator.
func NewService(
	store *SessionStore,
	generator *Generator,
	timers *timer.Manager,
	events EventSink,
	stats StatsRecorder,
	presence Presence,
	clock clockwork.Clock,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.MatchCountdown <= 0 {
		opts.MatchCountdown = 3 * time.Second
	}
	if opts.DisconnectGrace <= 0 {
		opts.DisconnectGrace = 10 * time.Second
	}
	if opts.RandomMatchDuration <= 0 {
		opts.RandomMatchDuration = time.Minute
	}
	return &Service{
		store:     store,
		generator: generator,
		timers:    timers,
		locks:     newSessionLocks(),
		events:    events,
		stats:     stats,
		presence:  presence,
		clock:     clock,
		opts:      opts,
		logger:    logger.With().Str("component", "game_service").Logger(),
	}
}

func matchTimerKey(sessionID string) string {
	return "match:" + sessionID
}

func expiryTimerKey(sessionID string) string {
	return "expiry:" + sessionID
}

func disconnectTimerKey(userID uuid.UUID, sessionID string) string {
	return "disconnect:" + userID.String() + ":" + sessionID
}

// CreateSession creates a custom session owned by the creator. Duration is
// validated against the accepted lengths.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, username string, durationMinutes int) (*Session, error) {
	valid := false
	for _, d := range ValidDurationsMinutes {
		if d == durationMinutes {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidDuration
	}

	id, err := gonanoid.New(sessionIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := &Session{
		ID:              id,
		CreatorID:       userID,
		Players:         []Player{{UserID: userID, Username: username}},
		DurationSeconds: durationMinutes * 60,
		Status:          StatusWaiting,
		Problems:        []Problem{},
		CurrentProblem:  -1,
		CreatedAt:       s.clock.Now().UTC(),
	}

	if err := s.store.Insert(ctx, sess); err != nil {
		return nil, err
	}
	s.store.AddUserSession(ctx, userID, sess.ID)
	sessionsCreated.WithLabelValues("custom").Inc()

	s.logger.Info().Str("session_id", sess.ID).Str("creator_id", userID.String()).
		Int("duration_seconds", sess.DurationSeconds).Msg("session created")
	return sess, nil
}

// CreateMatchedSession creates a session for two paired players. The match
// countdown timer auto-starts it; if a player drops out before the countdown
// fires the start is aborted.
func (s *Service) CreateMatchedSession(ctx context.Context, a, b Player) (*Session, error) {
	id, err := gonanoid.New(sessionIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := &Session{
		ID:              id,
		CreatorID:       a.UserID,
		Players:         []Player{a, b},
		DurationSeconds: int(s.opts.RandomMatchDuration.Seconds()),
		Status:          StatusWaiting,
		Problems:        []Problem{},
		CurrentProblem:  -1,
		RandomMatch:     true,
		CreatedAt:       s.clock.Now().UTC(),
	}

	if err := s.store.Insert(ctx, sess); err != nil {
		return nil, err
	}
	s.store.AddUserSession(ctx, a.UserID, sess.ID)
	s.store.AddUserSession(ctx, b.UserID, sess.ID)
	sessionsCreated.WithLabelValues("matched").Inc()

	s.timers.Schedule(matchTimerKey(sess.ID), s.opts.MatchCountdown, func() {
		s.autoStart(sess.ID)
	})

	s.logger.Info().Str("session_id", sess.ID).
		Str("player_a", a.UserID.String()).Str("player_b", b.UserID.String()).
		Msg("matched session created")
	return sess, nil
}

// JoinSession adds the user to a waiting session, or reattaches them to one
// they already belong to. Rejoining an active session cancels the player's
// disconnect grace timer.
func (s *Service) JoinSession(ctx context.Context, sessionID string, userID uuid.UUID, username string) (*Session, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Player(userID) != nil {
		s.timers.Cancel(disconnectTimerKey(userID, sessionID))
		return sess, nil
	}

	if sess.Status != StatusWaiting {
		return nil, ErrAlreadyStarted
	}
	if len(sess.Players) >= maxPlayers {
		return nil, ErrSessionFull
	}

	sess.Players = append(sess.Players, Player{UserID: userID, Username: username})
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.store.AddUserSession(ctx, userID, sessionID)

	s.events.SessionUpdate(sess)
	s.logger.Info().Str("session_id", sessionID).Str("user_id", userID.String()).Msg("player joined")
	return sess, nil
}

// StartSession begins the session. Only the creator may start it, and only
// with both players present.
func (s *Service) StartSession(ctx context.Context, sessionID string, userID uuid.UUID) (*Session, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.UpdateIfStatus(ctx, sessionID, StatusWaiting, ErrAlreadyStarted, func(sess *Session) error {
		if sess.CreatorID != userID {
			return ErrNotCreator
		}
		if len(sess.Players) < maxPlayers {
			return ErrNotEnoughPlayers
		}
		s.applyStart(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStart(sess)
	return sess, nil
}

// autoStart is the match countdown callback. The session may have been
// abandoned since the timer was armed, so the start preconditions are
// rechecked under the lock.
func (s *Service) autoStart(sessionID string) {
	ctx := context.Background()

	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.UpdateIfStatus(ctx, sessionID, StatusWaiting, errAutoStartAborted, func(sess *Session) error {
		if len(sess.Players) < maxPlayers {
			return errAutoStartAborted
		}
		s.applyStart(sess)
		return nil
	})
	if errors.Is(err, errAutoStartAborted) || errors.Is(err, ErrSessionNotFound) {
		s.logger.Debug().Str("session_id", sessionID).Msg("auto-start skipped")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("auto-start failed")
		return
	}

	s.afterStart(sess)
}

// applyStart transitions waiting -> active and deals the first problem.
func (s *Service) applyStart(sess *Session) {
	now := s.clock.Now().UTC()
	ends := now.Add(time.Duration(sess.DurationSeconds) * time.Second)

	sess.Status = StatusActive
	sess.StartedAt = &now
	sess.EndsAt = &ends
	sess.Problems = append(sess.Problems, s.generator.Generate())
	sess.CurrentProblem = 0
}

// afterStart arms the expiry timer and announces round 1. Runs after the
// active transition has been persisted.
func (s *Service) afterStart(sess *Session) {
	s.timers.Schedule(expiryTimerKey(sess.ID), sess.EndsAt.Sub(s.clock.Now()), func() {
		s.expire(sess.ID)
	})

	s.events.SessionStarted(sess)
	s.logger.Info().Str("session_id", sess.ID).Time("ends_at", *sess.EndsAt).Msg("session started")
}

// SubmitAnswer records the user's answer to the current problem. Malformed
// input is accepted and scored as incorrect. The second response of a round
// advances the session, either to a fresh problem or to completion when time
// has run out.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID string, userID uuid.UUID, answer string) (*Session, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.UpdateIfStatus(ctx, sessionID, StatusActive, ErrNoActiveSession, func(sess *Session) error {
		if sess.Player(userID) == nil {
			return ErrNoActiveSession
		}

		problem := sess.Current()
		if problem == nil {
			return ErrNoActiveProblem
		}
		if problem.ResponseBy(userID) != nil {
			return ErrDuplicateAnswer
		}

		now := s.clock.Now().UTC()
		correct := false
		if v, perr := strconv.Atoi(strings.TrimSpace(answer)); perr == nil {
			correct = v == problem.Answer
		}

		problem.Responses = append(problem.Responses, Response{
			UserID:         userID,
			Answer:         answer,
			Correct:        correct,
			ResponseTimeMs: now.Sub(*sess.StartedAt).Milliseconds(),
		})
		if correct {
			sess.Player(userID).Score++
		}
		answersSubmitted.WithLabelValues(strconv.FormatBool(correct)).Inc()

		if len(problem.Responses) >= len(sess.Players) {
			if !now.Before(*sess.EndsAt) {
				s.applyEnd(sess)
				return nil
			}
			sess.Problems = append(sess.Problems, s.generator.Generate())
			sess.CurrentProblem++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sess.Status == StatusCompleted {
		s.afterEnd(ctx, sess)
		return sess, nil
	}

	s.events.RoundUpdate(sess)
	return sess, nil
}

// EndSession terminates a session on behalf of a member. Ending a session
// that is already completed is a no-op.
func (s *Service) EndSession(ctx context.Context, sessionID string, userID uuid.UUID) (*Session, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return sess, nil
	}
	if sess.Player(userID) == nil {
		return nil, ErrNoActiveSession
	}

	s.applyEnd(sess)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.afterEnd(ctx, sess)
	return sess, nil
}

// expire is the session expiry callback. It rechecks status and deadline
// under the lock since a submit-driven end may already have completed the
// session.
func (s *Service) expire(sessionID string) {
	ctx := context.Background()

	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.UpdateIfStatus(ctx, sessionID, StatusActive, errExpiryStale, func(sess *Session) error {
		if sess.EndsAt != nil && s.clock.Now().Before(*sess.EndsAt) {
			return errExpiryStale
		}
		s.applyEnd(sess)
		return nil
	})
	if errors.Is(err, errExpiryStale) || errors.Is(err, ErrSessionNotFound) {
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("expiry end failed")
		return
	}

	s.afterEnd(ctx, sess)
}

// applyEnd transitions the session to completed and settles the winner.
func (s *Service) applyEnd(sess *Session) {
	sess.Status = StatusCompleted
	sess.WinnerID = winnerOf(sess.Players)
}

// afterEnd cancels the session's timers, records career stats and announces
// the result. Runs exactly once per session, after the completed transition
// has been persisted.
func (s *Service) afterEnd(ctx context.Context, sess *Session) {
	s.timers.Cancel(matchTimerKey(sess.ID))
	s.timers.Cancel(expiryTimerKey(sess.ID))
	for _, p := range sess.Players {
		s.timers.Cancel(disconnectTimerKey(p.UserID, sess.ID))
	}

	for _, p := range sess.Players {
		if err := s.stats.IncrementGamesPlayed(ctx, p.UserID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", p.UserID.String()).Msg("failed to record game played")
		}
	}
	if sess.WinnerID != nil {
		if err := s.stats.IncrementGamesWon(ctx, *sess.WinnerID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", sess.WinnerID.String()).Msg("failed to record game won")
		}
	}

	sessionsCompleted.Inc()
	s.events.SessionEnded(sess)

	winner := "none"
	if sess.WinnerID != nil {
		winner = sess.WinnerID.String()
	}
	s.logger.Info().Str("session_id", sess.ID).Str("winner_id", winner).Msg("session ended")
}

// winnerOf returns the player with the strictly highest score, or nil on a
// tie or an empty roster.
func winnerOf(players []Player) *uuid.UUID {
	if len(players) == 0 {
		return nil
	}

	best := players[0]
	tied := false
	for _, p := range players[1:] {
		switch {
		case p.Score > best.Score:
			best = p
			tied = false
		case p.Score == best.Score:
			tied = true
		}
	}
	if tied {
		return nil
	}
	id := best.UserID
	return &id
}

// HandleDisconnect arms a grace timer for each of the user's sessions. If
// they do not reconnect within the grace window an active session ends and
// the remaining player is notified; a waiting session just drops them.
func (s *Service) HandleDisconnect(userID uuid.UUID, sessionIDs []string) {
	for _, sessionID := range sessionIDs {
		sid := sessionID
		s.timers.Schedule(disconnectTimerKey(userID, sid), s.opts.DisconnectGrace, func() {
			s.onDisconnectExpired(sid, userID)
		})
	}
}

// onDisconnectExpired ends the session unless the player came back or the
// session already finished.
func (s *Service) onDisconnectExpired(sessionID string, userID uuid.UUID) {
	ctx := context.Background()

	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("disconnect lookup failed")
		}
		return
	}
	if sess.Status == StatusCompleted {
		return
	}
	player := sess.Player(userID)
	if player == nil {
		return
	}
	if s.presence.InRoom(sessionID, userID) {
		return
	}

	s.events.PlayerLeft(sess, userID.String(), player.Username+" left the game")

	if sess.Status == StatusActive {
		s.applyEnd(sess)
		if err := s.store.Save(ctx, sess); err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("disconnect end failed")
			return
		}
		s.afterEnd(ctx, sess)
		return
	}

	// Waiting session: drop the player so the other side can keep waiting.
	for i, p := range sess.Players {
		if p.UserID == userID {
			sess.Players = append(sess.Players[:i], sess.Players[i+1:]...)
			break
		}
	}
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("disconnect save failed")
		return
	}
	s.events.SessionUpdate(sess)
}

// GetSession returns a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.FindByID(ctx, sessionID)
}

// UserSessions returns the user's recent sessions, newest first. Ids whose
// records have expired are skipped.
func (s *Service) UserSessions(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	ids, err := s.store.UserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.store.FindByID(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
