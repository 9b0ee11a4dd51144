package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, 7, "Mia", "staff", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Mia", claims.Name)
	assert.Equal(t, "staff", claims.Role)
}

func TestParseTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken([]byte("a"), 1, "Mia", "staff", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("b"), token)
	assert.Error(t, err)

	expired, err := GenerateToken([]byte("a"), 1, "Mia", "staff", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken([]byte("a"), expired)
	assert.Error(t, err)
}
