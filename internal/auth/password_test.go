package auth_test

import (
	"strings"
	"testing"

	"github.com/hugh/go-crm/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", hash)

	assert.True(t, auth.CheckPassword("Secret1!", hash))
	assert.False(t, auth.CheckPassword("secret1!", hash))
	assert.False(t, auth.CheckPassword("Secret1!", "not-a-hash"))

	other, err := auth.HashPassword("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "bcrypt salts every hash")
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := auth.HashPassword(strings.Repeat("a", auth.MaxPasswordBytes+1))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
}
