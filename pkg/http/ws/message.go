package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeJoinSession        = "join-session"
	TypeStartSession       = "start-session"
	TypeSubmitAnswer       = "submit-answer"
	TypeFindOpponent       = "find-opponent"
	TypeCancelFindOpponent = "cancel-find-opponent"

	// Server -> Client
	TypeSessionUpdate  = "session-update"
	TypeSessionStarted = "session-started"
	TypeRoundUpdate    = "round-update"
	TypeSessionEnded   = "session-ended"
	TypePlayerLeft     = "player-left"
	TypeMatchFound     = "match-found"
	TypeQueueStatus    = "queue-status"
	TypeMatchCancelled = "match-cancelled"
	TypeError          = "error"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage marshals the payload into a typed message.
func NewMessage(msgType string, payload interface{}) Message {
	raw, _ := json.Marshal(payload)
	return Message{Type: msgType, Payload: raw}
}

// Client messages (incoming)

type JoinSessionPayload struct {
	SessionID string `json:"session_id"`
}

type StartSessionPayload struct {
	SessionID string `json:"session_id"`
}

type SubmitAnswerPayload struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// Server messages (outgoing)

// ProblemPayload is a problem as shown to clients. The answer never leaves
// the server while a session is live.
type ProblemPayload struct {
	Type     string `json:"type"`
	Operand1 int    `json:"operand1"`
	Operand2 int    `json:"operand2"`
}

type PlayerPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type SessionUpdatePayload struct {
	SessionID       string          `json:"session_id"`
	CreatorID       string          `json:"creator_id"`
	Status          string          `json:"status"`
	DurationSeconds int             `json:"duration_seconds"`
	Players         []PlayerPayload `json:"players"`
}

type SessionStartedPayload struct {
	SessionID string         `json:"session_id"`
	Problem   ProblemPayload `json:"problem"`
	EndsAt    string         `json:"ends_at"` // RFC3339
}

type RoundUpdatePayload struct {
	SessionID string          `json:"session_id"`
	Problem   ProblemPayload  `json:"problem"`
	Players   []PlayerPayload `json:"players"`
}

type SessionEndedPayload struct {
	SessionID string          `json:"session_id"`
	Status    string          `json:"status"`
	Players   []PlayerPayload `json:"players"`
	WinnerID  *string         `json:"winner_id,omitempty"`
}

type PlayerLeftPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

type MatchFoundPayload struct {
	SessionID    string `json:"session_id"`
	OpponentName string `json:"opponent_name"`
	CountdownMs  int    `json:"countdown_ms"`
}

type QueueStatusPayload struct {
	Size int `json:"size"`
}

type MatchCancelledPayload struct{}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
