package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(now *time.Time) *auth.JWTService {
	return auth.NewJWTService("test-secret", 24*time.Hour, 15*time.Minute).
		WithClock(func() time.Time { return *now })
}

func TestJWTService_GenerateToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	jwtService := newTestJWT(&now)

	userID := uuid.New()
	sessionID := uuid.NewString()

	t.Run("round-trips user and session", func(t *testing.T) {
		token, err := jwtService.GenerateToken(userID, sessionID)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, sessionID, claims.SessionID)
		assert.Equal(t, "go-crm", claims.Issuer)
		assert.Equal(t, userID.String(), claims.Subject)
		assert.Equal(t, now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("rejects empty session", func(t *testing.T) {
		token, err := jwtService.GenerateToken(userID, "")
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})
}

func TestJWTService_ValidateToken(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.NewString()

	t.Run("rejects expired token", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		jwtService := newTestJWT(&now)

		token, err := jwtService.GenerateToken(userID, sessionID)
		require.NoError(t, err)

		now = now.Add(25 * time.Hour)
		_, err = jwtService.ValidateToken(token)
		assert.Equal(t, auth.ErrExpiredToken, err)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour, time.Minute)

		token, err := jwtService.GenerateToken(userID, sessionID)
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token + "tampered")
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		a := auth.NewJWTService("secret-1", time.Hour, time.Minute)
		b := auth.NewJWTService("secret-2", time.Hour, time.Minute)

		token, err := a.GenerateToken(userID, sessionID)
		require.NoError(t, err)

		_, err = b.ValidateToken(token)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("rejects malformed and empty tokens", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour, time.Minute)

		for _, token := range []string{"not-a-valid-jwt", ""} {
			_, err := jwtService.ValidateToken(token)
			assert.Equal(t, auth.ErrInvalidToken, err)
		}
	})
}

func TestJWTService_ResetToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	jwtService := newTestJWT(&now)

	t.Run("round-trips email", func(t *testing.T) {
		token, err := jwtService.GenerateResetToken("a@x.com")
		require.NoError(t, err)

		email, err := jwtService.ValidateResetToken(token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", email)
	})

	t.Run("expires after the reset window", func(t *testing.T) {
		token, err := jwtService.GenerateResetToken("a@x.com")
		require.NoError(t, err)

		later := now
		defer func() { now = later }()
		now = now.Add(16 * time.Minute)

		_, err = jwtService.ValidateResetToken(token)
		assert.Equal(t, auth.ErrExpiredToken, err)
	})

	t.Run("audiences do not cross", func(t *testing.T) {
		resetToken, err := jwtService.GenerateResetToken("a@x.com")
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(resetToken)
		assert.Equal(t, auth.ErrInvalidToken, err)

		accessToken, err := jwtService.GenerateToken(uuid.New(), uuid.NewString())
		require.NoError(t, err)
		_, err = jwtService.ValidateResetToken(accessToken)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})
}
