package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour, "user-1", "a@example.com", "user", "tenant-x")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "tenant-x", claims.TenantID)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenIDsUnique(t *testing.T) {
	t1, err := GenerateToken(testSecret, time.Hour, "user-1", "a@example.com", "user", "tenant-x")
	require.NoError(t, err)
	t2, err := GenerateToken(testSecret, time.Hour, "user-1", "a@example.com", "user", "tenant-x")
	require.NoError(t, err)

	c1, err := ParseToken(testSecret, t1)
	require.NoError(t, err)
	c2, err := ParseToken(testSecret, t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.TokenID, c2.TokenID)
}

func TestParseExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, -time.Minute, "user-1", "a@example.com", "user", "tenant-x")
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour, "user-1", "a@example.com", "user", "tenant-x")
	require.NoError(t, err)

	_, err = ParseToken("another-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTampered(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour, "user-1", "a@example.com", "user", "tenant-x")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = ParseToken(testSecret, tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
