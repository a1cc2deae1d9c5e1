package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret")})

	userID := uuid.New()
	token, err := mgr.Generate(userID, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "mathletes", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret")})
	other := NewManager(TokenConfig{Secret: []byte("different-secret")})

	token, err := mgr.Generate(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret"), TTL: -time.Minute})

	token, err := mgr.Generate(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = mgr.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	mgr := NewManager(TokenConfig{Secret: []byte("test-secret")})

	_, err := mgr.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
