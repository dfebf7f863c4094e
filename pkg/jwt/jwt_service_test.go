package jwt

import (
	"testing"
	"time"

	"foodgram/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndReadToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateTokenUser(42, domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.GetClaims(token)
	require.NoError(t, err)

	id, err := claims.ParsedUserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	a, err := svc.GenerateTokenUser(1, domain.RoleUser)
	require.NoError(t, err)
	b, err := svc.GenerateTokenUser(1, domain.RoleUser)
	require.NoError(t, err)

	ca, err := svc.GetClaims(a)
	require.NoError(t, err)
	cb, err := svc.GetClaims(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestExpiredToken(t *testing.T) {
	svc := &jwtService{
		secretKey: "secret",
		issuer:    issuer,
		ttl:       time.Minute,
		now:       func() time.Time { return time.Now().Add(-time.Hour) },
	}

	token, err := svc.GenerateTokenUser(1, domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.GetClaims(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestTokenSignedWithAnotherSecret(t *testing.T) {
	token, err := NewJWTService("one", time.Hour).GenerateTokenUser(1, domain.RoleUser)
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).GetClaims(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestGarbageToken(t *testing.T) {
	_, err := NewJWTService("secret", time.Hour).GetClaims("not.a.token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
