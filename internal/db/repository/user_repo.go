package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// User is an account row with lifetime match stats.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	GamesPlayed  int
	GamesWon     int
	CreatedAt    time.Time
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UserRepository exposes typed DB operations for accounts and stats.
type UserRepository struct {
	db Querier
}

// NewUserRepository wraps a pgx pool for user-specific operations.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account with a hashed password.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (User, error) {
	const query = `
		INSERT INTO users (user_id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING user_id, username, password_hash, games_played, games_won, created_at`

	var u User
	err := r.db.QueryRow(ctx, query, uuid.New(), username, passwordHash).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.GamesPlayed, &u.GamesWon, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	const query = `
		SELECT user_id, username, password_hash, games_played, games_won, created_at
		FROM users WHERE username = $1`

	var u User
	err := r.db.QueryRow(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.GamesPlayed, &u.GamesWon, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	const query = `
		SELECT user_id, username, password_hash, games_played, games_won, created_at
		FROM users WHERE user_id = $1`

	var u User
	err := r.db.QueryRow(ctx, query, userID).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.GamesPlayed, &u.GamesWon, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// IncrementGamesPlayed bumps a user's lifetime play count.
func (r *UserRepository) IncrementGamesPlayed(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET games_played = games_played + 1 WHERE user_id = $1`, userID)
	return err
}

// IncrementGamesWon bumps a user's lifetime win count.
func (r *UserRepository) IncrementGamesWon(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET games_won = games_won + 1 WHERE user_id = $1`, userID)
	return err
}
