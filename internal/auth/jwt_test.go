package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresAt, err := svc.GenerateAccessToken(42, "ada@example.com", "customer")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, _, err := svc.GenerateAccessToken(42, "ada@example.com", "customer")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenSignedWithDifferentKeyRejected(t *testing.T) {
	issuer := NewJWTService("key-one", time.Hour)
	verifier := NewJWTService("key-two", time.Hour)

	token, _, err := issuer.GenerateAccessToken(42, "ada@example.com", "customer")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMalformedTokenRejected(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityModes(t *testing.T) {
	guest := Identity{SessionID: "sess-1"}
	assert.False(t, guest.Authenticated())
	assert.False(t, guest.IsAdmin())

	user := Identity{UserID: 42, Role: "customer"}
	assert.True(t, user.Authenticated())
	assert.False(t, user.IsAdmin())

	admin := Identity{UserID: 1, Role: RoleAdmin}
	assert.True(t, admin.IsAdmin())
}
