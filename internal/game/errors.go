package game

import (
	"errors"

	httperrors "github.com/mkunboxing/mathletes/pkg/http/errors"
)

// Operation errors. All are recovered at the operation boundary and surfaced
// to the initiating connection only; none corrupt shared session state.
var (
	ErrInvalidDuration  = errors.New("duration must be 1, 2 or 5 minutes")
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyStarted   = errors.New("session already started or completed")
	ErrSessionFull      = errors.New("session is full")
	ErrNotCreator       = errors.New("only the session creator can start it")
	ErrNotEnoughPlayers = errors.New("two players are required to start")
	ErrNoActiveSession  = errors.New("no active session")
	ErrNoActiveProblem  = errors.New("no active problem")
	ErrDuplicateAnswer  = errors.New("problem already answered")
)

// ErrorCode maps an operation error to its wire-level error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDuration):
		return httperrors.ErrCodeInvalidDuration
	case errors.Is(err, ErrSessionNotFound):
		return httperrors.ErrCodeSessionNotFound
	case errors.Is(err, ErrAlreadyStarted):
		return httperrors.ErrCodeSessionAlreadyStarted
	case errors.Is(err, ErrSessionFull):
		return httperrors.ErrCodeSessionFull
	case errors.Is(err, ErrNotCreator):
		return httperrors.ErrCodeForbidden
	case errors.Is(err, ErrNotEnoughPlayers):
		return httperrors.ErrCodeNotEnoughPlayers
	case errors.Is(err, ErrNoActiveSession):
		return httperrors.ErrCodeNoActiveSession
	case errors.Is(err, ErrNoActiveProblem):
		return httperrors.ErrCodeNoActiveProblem
	case errors.Is(err, ErrDuplicateAnswer):
		return httperrors.ErrCodeDuplicateAnswer
	default:
		return httperrors.ErrCodeInternalError
	}
}
