package game

import (
	"time"

	"github.com/google/uuid"
)

// Session lifecycle states. Transitions are forward-only:
// waiting -> active -> completed.
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Problem kinds.
const (
	ProblemAddition       = "addition"
	ProblemSubtraction    = "subtraction"
	ProblemMultiplication = "multiplication"
	ProblemDivision       = "division"
)

// ValidDurationsMinutes are the accepted custom session lengths.
var ValidDurationsMinutes = []int{1, 2, 5}

const maxPlayers = 2

// Player is a participant in a session. Score only ever increases.
type Player struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
}

// Response records one player's answer to a problem. At most one response
// per user per problem.
type Response struct {
	UserID         uuid.UUID `json:"user_id"`
	Answer         string    `json:"answer"` // raw text as submitted
	Correct        bool      `json:"correct"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

// Problem is one arithmetic question. Division problems are constructed so
// Operand1 = Operand2 * Answer exactly.
type Problem struct {
	Type      string     `json:"type"`
	Operand1  int        `json:"operand1"`
	Operand2  int        `json:"operand2"`
	Answer    int        `json:"answer"`
	Responses []Response `json:"responses"`
}

// ResponseBy returns the user's response to this problem, if any.
func (p *Problem) ResponseBy(userID uuid.UUID) *Response {
	for i := range p.Responses {
		if p.Responses[i].UserID == userID {
			return &p.Responses[i]
		}
	}
	return nil
}

// Session is the aggregate root for one timed two-player match.
type Session struct {
	ID              string     `json:"session_id"`
	CreatorID       uuid.UUID  `json:"creator_id"`
	Players         []Player   `json:"players"`
	DurationSeconds int        `json:"duration_seconds"`
	Status          string     `json:"status"`
	Problems        []Problem  `json:"problems"`
	CurrentProblem  int        `json:"current_problem"` // index into Problems; -1 before round 1
	WinnerID        *uuid.UUID `json:"winner_id,omitempty"`
	RandomMatch     bool       `json:"random_match"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Player returns the session member with the given id, if present.
func (s *Session) Player(userID uuid.UUID) *Player {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return &s.Players[i]
		}
	}
	return nil
}

// Current returns the problem being played, or nil if no round has started.
func (s *Session) Current() *Problem {
	if s.CurrentProblem < 0 || s.CurrentProblem >= len(s.Problems) {
		return nil
	}
	return &s.Problems[s.CurrentProblem]
}
