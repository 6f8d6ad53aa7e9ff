package auth

import "github.com/google/uuid"

// TokenService signs and verifies access and password-reset tokens.
type TokenService interface {
	GenerateToken(userID uuid.UUID, sessionID string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	GenerateResetToken(email string) (string, error)
	ValidateResetToken(tokenString string) (string, error)
}

// Compile-time interface satisfaction checks
var _ TokenService = (*JWTService)(nil)
