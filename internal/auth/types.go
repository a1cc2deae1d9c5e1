package auth

import "github.com/google/uuid"

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID          uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
}

// AuthResponse is returned from register/login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
