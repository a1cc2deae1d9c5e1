package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/auth"
	httperrors "github.com/mkunboxing/mathletes/pkg/http/errors"
)

// HTTPHandlers exposes session creation and lookup over REST. The realtime
// flow lives on the WebSocket; these endpoints exist for lobby pages and
// post-game review.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates the session REST handlers.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "game_http").Logger(),
	}
}

type createSessionRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

type responseView struct {
	UserID         string `json:"user_id"`
	Answer         string `json:"answer"`
	Correct        bool   `json:"correct"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

type problemView struct {
	Type      string         `json:"type"`
	Operand1  int            `json:"operand1"`
	Operand2  int            `json:"operand2"`
	Answer    *int           `json:"answer,omitempty"` // only on completed sessions
	Responses []responseView `json:"responses"`
}

type playerView struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type sessionView struct {
	SessionID       string        `json:"session_id"`
	CreatorID       string        `json:"creator_id"`
	Status          string        `json:"status"`
	DurationSeconds int           `json:"duration_seconds"`
	RandomMatch     bool          `json:"random_match"`
	Players         []playerView  `json:"players"`
	Problems        []problemView `json:"problems"`
	WinnerID        *string       `json:"winner_id,omitempty"`
	StartedAt       *string       `json:"started_at,omitempty"`
	EndsAt          *string       `json:"ends_at,omitempty"`
	CreatedAt       string        `json:"created_at"`
}

// Create handles POST /v1/sessions.
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), claims.UserID, claims.Username, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, ErrInvalidDuration) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidDuration, err.Error(), "duration_minutes")
			return
		}
		h.logger.Error().Err(err).Msg("create session failed")
		httperrors.RespondInternalError(w, "Failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, toSessionView(sess))
}

// Get handles GET /v1/sessions/{id}.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
			return
		}
		h.logger.Error().Err(err).Msg("get session failed")
		httperrors.RespondInternalError(w, "Failed to load session")
		return
	}

	respondJSON(w, http.StatusOK, toSessionView(sess))
}

// MySessions handles GET /v1/users/me/sessions.
func (h *HTTPHandlers) MySessions(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	sessions, err := h.svc.UserSessions(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list sessions failed")
		httperrors.RespondInternalError(w, "Failed to load sessions")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, toSessionView(sess))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// toSessionView shapes a session for clients. Problem answers are withheld
// until the session completes.
func toSessionView(sess *Session) sessionView {
	includeAnswers := sess.Status == StatusCompleted

	view := sessionView{
		SessionID:       sess.ID,
		CreatorID:       sess.CreatorID.String(),
		Status:          sess.Status,
		DurationSeconds: sess.DurationSeconds,
		RandomMatch:     sess.RandomMatch,
		Players:         make([]playerView, 0, len(sess.Players)),
		Problems:        make([]problemView, 0, len(sess.Problems)),
		CreatedAt:       sess.CreatedAt.UTC().Format(time.RFC3339),
	}

	for _, p := range sess.Players {
		view.Players = append(view.Players, playerView{
			UserID:   p.UserID.String(),
			Username: p.Username,
			Score:    p.Score,
		})
	}

	for i := range sess.Problems {
		prob := &sess.Problems[i]
		pv := problemView{
			Type:      prob.Type,
			Operand1:  prob.Operand1,
			Operand2:  prob.Operand2,
			Responses: make([]responseView, 0, len(prob.Responses)),
		}
		if includeAnswers {
			answer := prob.Answer
			pv.Answer = &answer
		}
		for _, resp := range prob.Responses {
			pv.Responses = append(pv.Responses, responseView{
				UserID:         resp.UserID.String(),
				Answer:         resp.Answer,
				Correct:        resp.Correct,
				ResponseTimeMs: resp.ResponseTimeMs,
			})
		}
		view.Problems = append(view.Problems, pv)
	}

	if sess.WinnerID != nil {
		id := sess.WinnerID.String()
		view.WinnerID = &id
	}
	if sess.StartedAt != nil {
		ts := sess.StartedAt.UTC().Format(time.RFC3339)
		view.StartedAt = &ts
	}
	if sess.EndsAt != nil {
		ts := sess.EndsAt.UTC().Format(time.RFC3339)
		view.EndsAt = &ts
	}
	return view
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
