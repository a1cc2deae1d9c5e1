package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mkunboxing/mathletes/internal/auth/jwt"
	"github.com/mkunboxing/mathletes/internal/db/repository"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 24
)

var ErrInvalidUsername = fmt.Errorf("username must be %d-%d characters", minUsernameLength, maxUsernameLength)

// Service handles account registration and credential login.
type Service struct {
	users    *repository.UserRepository
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(users *repository.UserRepository, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new account and issues a token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, ErrInvalidUsername
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	dbUser, err := s.users.Create(ctx, username, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokenMgr.Generate(dbUser.ID, dbUser.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Str("user_id", dbUser.ID.String()).Str("username", username).Msg("user registered")

	return &AuthResponse{User: toUser(dbUser), Token: token}, nil
}

// Login authenticates a user with username/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	dbUser, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(dbUser.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenMgr.Generate(dbUser.ID, dbUser.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Str("user_id", dbUser.ID.String()).Msg("user logged in")

	return &AuthResponse{User: toUser(dbUser), Token: token}, nil
}

// ValidateToken verifies an access token and returns its claims.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokenMgr.Validate(token)
}

func toUser(u repository.User) User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		GamesPlayed: u.GamesPlayed,
		GamesWon:    u.GamesWon,
	}
}
