package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := issueToken(secret, 42, time.Hour)
	require.NoError(t, err)

	userID, err := parseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := issueToken([]byte("secret-a"), 42, time.Hour)
	require.NoError(t, err)

	_, err = parseToken([]byte("secret-b"), token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := issueToken(secret, 42, -time.Minute)
	require.NoError(t, err)

	_, err = parseToken(secret, token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := parseToken([]byte("test-secret"), "not-a-token")
	assert.Error(t, err)
}
