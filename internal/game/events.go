package game

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/pkg/http/ws"
)

// EventSink receives session lifecycle events for delivery to the players.
// The orchestrator never talks to connections directly.
type EventSink interface {
	SessionUpdate(sess *Session)
	SessionStarted(sess *Session)
	RoundUpdate(sess *Session)
	SessionEnded(sess *Session)
	PlayerLeft(sess *Session, userID string, message string)
}

// HubEvents broadcasts session events to the session's room on the hub.
type HubEvents struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewHubEvents creates the hub-backed event sink.
func NewHubEvents(hub *ws.Hub, logger zerolog.Logger) *HubEvents {
	return &HubEvents{
		hub:    hub,
		logger: logger.With().Str("component", "game_events").Logger(),
	}
}

func (e *HubEvents) SessionUpdate(sess *Session) {
	e.broadcast(sess.ID, ws.NewMessage(ws.TypeSessionUpdate, ws.SessionUpdatePayload{
		SessionID:       sess.ID,
		CreatorID:       sess.CreatorID.String(),
		Status:          sess.Status,
		DurationSeconds: sess.DurationSeconds,
		Players:         playerPayloads(sess),
	}))
}

func (e *HubEvents) SessionStarted(sess *Session) {
	current := sess.Current()
	if current == nil {
		return
	}
	e.broadcast(sess.ID, ws.NewMessage(ws.TypeSessionStarted, ws.SessionStartedPayload{
		SessionID: sess.ID,
		Problem:   problemPayload(current),
		EndsAt:    sess.EndsAt.UTC().Format(time.RFC3339),
	}))
}

func (e *HubEvents) RoundUpdate(sess *Session) {
	current := sess.Current()
	if current == nil {
		return
	}
	e.broadcast(sess.ID, ws.NewMessage(ws.TypeRoundUpdate, ws.RoundUpdatePayload{
		SessionID: sess.ID,
		Problem:   problemPayload(current),
		Players:   playerPayloads(sess),
	}))
}

func (e *HubEvents) SessionEnded(sess *Session) {
	payload := ws.SessionEndedPayload{
		SessionID: sess.ID,
		Status:    sess.Status,
		Players:   playerPayloads(sess),
	}
	if sess.WinnerID != nil {
		id := sess.WinnerID.String()
		payload.WinnerID = &id
	}
	e.broadcast(sess.ID, ws.NewMessage(ws.TypeSessionEnded, payload))
}

func (e *HubEvents) PlayerLeft(sess *Session, userID string, message string) {
	e.broadcast(sess.ID, ws.NewMessage(ws.TypePlayerLeft, ws.PlayerLeftPayload{
		SessionID: sess.ID,
		UserID:    userID,
		Message:   message,
	}))
}

func (e *HubEvents) broadcast(sessionID string, msg ws.Message) {
	if err := e.hub.Broadcast(sessionID, msg); err != nil {
		e.logger.Warn().Err(err).Str("session_id", sessionID).Str("type", msg.Type).Msg("broadcast failed")
	}
}

func problemPayload(p *Problem) ws.ProblemPayload {
	return ws.ProblemPayload{
		Type:     p.Type,
		Operand1: p.Operand1,
		Operand2: p.Operand2,
	}
}

func playerPayloads(sess *Session) []ws.PlayerPayload {
	out := make([]ws.PlayerPayload, 0, len(sess.Players))
	for _, p := range sess.Players {
		out = append(out, ws.PlayerPayload{
			UserID:   p.UserID.String(),
			Username: p.Username,
			Score:    p.Score,
		})
	}
	return out
}
