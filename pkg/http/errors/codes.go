package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeAuthenticationFailed   = "authentication_failed"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInvalidDuration  = "invalid_duration"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Account errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeUsernameTaken      = "username_taken"

	// Session errors
	ErrCodeSessionNotFound       = "session_not_found"
	ErrCodeSessionAlreadyStarted = "session_already_started"
	ErrCodeSessionFull           = "session_full"
	ErrCodeNotEnoughPlayers      = "not_enough_players"
	ErrCodeNoActiveSession       = "no_active_session"
	ErrCodeNoActiveProblem       = "no_active_problem"
	ErrCodeDuplicateAnswer       = "duplicate_answer"
	ErrCodeSessionCreationFailed = "session_creation_failed"
	ErrCodeJoinFailed            = "join_failed"
	ErrCodeStartFailed           = "start_failed"
	ErrCodeSubmitFailed          = "submit_failed"

	// Queue errors
	ErrCodeEnqueueFailed = "enqueue_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
