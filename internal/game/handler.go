package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/game/queue"
	httperrors "github.com/mkunboxing/mathletes/pkg/http/errors"
	"github.com/mkunboxing/mathletes/pkg/http/ws"
)

// Handler routes WebSocket messages from a connection to the orchestrator
// and the matchmaking queue, and owns the disconnect sequence.
type Handler struct {
	svc            *Service
	queue          *queue.Manager
	hub            *ws.Hub
	clock          clockwork.Clock
	matchCountdown time.Duration
	logger         zerolog.Logger
}

// NewHandler creates the WebSocket game handler.
func NewHandler(svc *Service, q *queue.Manager, hub *ws.Hub, clock clockwork.Clock, matchCountdown time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:            svc,
		queue:          q,
		hub:            hub,
		clock:          clock,
		matchCountdown: matchCountdown,
		logger:         logger.With().Str("component", "game_handler").Logger(),
	}
}

// HandleConnection runs the read loop for an authenticated connection and
// tears it down when the peer goes away. Blocks until the connection drops.
func (h *Handler) HandleConnection(userID uuid.UUID, username string, conn *ws.Connection) {
	h.hub.RegisterConnection(userID, conn)
	go conn.WritePump()

	conn.ReadPump(func(msg ws.Message) error {
		h.route(userID, username, msg)
		return nil
	})

	// Room membership must be read before unregistering clears it.
	sessionIDs := h.hub.RoomsOf(userID)
	h.hub.UnregisterConnection(userID, conn)

	// A newer connection for the same user owns the teardown now.
	if h.hub.IsConnected(userID) {
		return
	}

	if h.queue.Dequeue(userID) {
		SetQueueDepth(h.queue.Size())
	}
	h.svc.HandleDisconnect(userID, sessionIDs)

	h.logger.Info().Str("user_id", userID.String()).Msg("connection closed")
}

func (h *Handler) route(userID uuid.UUID, username string, msg ws.Message) {
	ctx := context.Background()

	switch msg.Type {
	case ws.TypeJoinSession:
		h.handleJoin(ctx, userID, username, msg.Payload)
	case ws.TypeStartSession:
		h.handleStart(ctx, userID, msg.Payload)
	case ws.TypeSubmitAnswer:
		h.handleSubmit(ctx, userID, msg.Payload)
	case ws.TypeFindOpponent:
		h.handleFindOpponent(ctx, userID, username)
	case ws.TypeCancelFindOpponent:
		h.handleCancelFindOpponent(userID)
	default:
		h.sendError(userID, httperrors.ErrCodeUnknownMessageType, "unknown message type: "+msg.Type)
	}
}

func (h *Handler) handleJoin(ctx context.Context, userID uuid.UUID, username string, raw json.RawMessage) {
	var payload ws.JoinSessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" {
		h.sendError(userID, httperrors.ErrCodeInvalidPayload, "join-session requires a session_id")
		return
	}

	// Join the room first so the membership broadcast reaches the joiner.
	h.hub.JoinRoom(userID, payload.SessionID)

	sess, err := h.svc.JoinSession(ctx, payload.SessionID, userID, username)
	if err != nil {
		h.hub.LeaveRoom(userID, payload.SessionID)
		h.sendOpError(userID, err)
		return
	}

	h.sendToUser(userID, ws.NewMessage(ws.TypeSessionUpdate, ws.SessionUpdatePayload{
		SessionID:       sess.ID,
		CreatorID:       sess.CreatorID.String(),
		Status:          sess.Status,
		DurationSeconds: sess.DurationSeconds,
		Players:         playerPayloads(sess),
	}))
}

func (h *Handler) handleStart(ctx context.Context, userID uuid.UUID, raw json.RawMessage) {
	var payload ws.StartSessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" {
		h.sendError(userID, httperrors.ErrCodeInvalidPayload, "start-session requires a session_id")
		return
	}

	if _, err := h.svc.StartSession(ctx, payload.SessionID, userID); err != nil {
		h.sendOpError(userID, err)
	}
}

func (h *Handler) handleSubmit(ctx context.Context, userID uuid.UUID, raw json.RawMessage) {
	var payload ws.SubmitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SessionID == "" {
		h.sendError(userID, httperrors.ErrCodeInvalidPayload, "submit-answer requires a session_id")
		return
	}

	if _, err := h.svc.SubmitAnswer(ctx, payload.SessionID, userID, payload.Answer); err != nil {
		h.sendOpError(userID, err)
	}
}

func (h *Handler) handleFindOpponent(ctx context.Context, userID uuid.UUID, username string) {
	entry := queue.Entry{
		UserID:   userID,
		Username: username,
		JoinedAt: h.clock.Now(),
	}

	a, b, paired := h.queue.Enqueue(entry)
	SetQueueDepth(h.queue.Size())

	if !paired {
		h.sendToUser(userID, ws.NewMessage(ws.TypeQueueStatus, ws.QueueStatusPayload{
			Size: h.queue.Size(),
		}))
		return
	}

	sess, err := h.svc.CreateMatchedSession(ctx,
		Player{UserID: a.UserID, Username: a.Username},
		Player{UserID: b.UserID, Username: b.Username},
	)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create matched session")
		h.sendError(a.UserID, httperrors.ErrCodeInternalError, "failed to create match")
		h.sendError(b.UserID, httperrors.ErrCodeInternalError, "failed to create match")
		return
	}

	h.hub.JoinRoom(a.UserID, sess.ID)
	h.hub.JoinRoom(b.UserID, sess.ID)

	countdownMs := int(h.matchCountdown.Milliseconds())
	h.sendToUser(a.UserID, ws.NewMessage(ws.TypeMatchFound, ws.MatchFoundPayload{
		SessionID:    sess.ID,
		OpponentName: b.Username,
		CountdownMs:  countdownMs,
	}))
	h.sendToUser(b.UserID, ws.NewMessage(ws.TypeMatchFound, ws.MatchFoundPayload{
		SessionID:    sess.ID,
		OpponentName: a.Username,
		CountdownMs:  countdownMs,
	}))
}

func (h *Handler) handleCancelFindOpponent(userID uuid.UUID) {
	if h.queue.Dequeue(userID) {
		SetQueueDepth(h.queue.Size())
	}
	h.sendToUser(userID, ws.NewMessage(ws.TypeMatchCancelled, ws.MatchCancelledPayload{}))
}

// sendOpError translates an orchestrator error into a private error event.
func (h *Handler) sendOpError(userID uuid.UUID, err error) {
	h.sendError(userID, ErrorCode(err), err.Error())
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) {
	h.sendToUser(userID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

func (h *Handler) sendToUser(userID uuid.UUID, msg ws.Message) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Str("type", msg.Type).Msg("send failed")
	}
}
