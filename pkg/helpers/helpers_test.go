package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Len(t, hash, BcryptHashLen)

	ok, err := ComparePassword(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	_, err := ComparePassword([]byte("short"), "x")
	assert.ErrorIs(t, err, ErrMalformedHash)

	// right length, not a bcrypt hash
	_, err = ComparePassword([]byte(strings.Repeat("x", BcryptHashLen)), "x")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), aexp, 5*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)

	// an access token is not a refresh token
	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.Now = func() time.Time { return issued }
	token, _, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)

	m.Now = time.Now
	_, err = m.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "user:session:abc", SessionKey("abc"))
}
