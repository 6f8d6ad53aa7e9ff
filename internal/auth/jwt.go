package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	issuer = "go-crm"

	// Audiences keep the two token kinds from being used interchangeably.
	AudienceAccess        = "access"
	AudiencePasswordReset = "password_reset"
)

// Claims are carried by access tokens. SessionID must match the user's
// stored session for the token to authenticate.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	SessionID string    `json:"session_id"`
	jwt.RegisteredClaims
}

// ResetClaims are carried by the short-lived token issued after a verified OTP.
type ResetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret      []byte
	expiry      time.Duration
	resetExpiry time.Duration
	now         func() time.Time
}

func NewJWTService(secret string, expiry, resetExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expiry:      expiry,
		resetExpiry: resetExpiry,
		now:         time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

func (s *JWTService) GenerateToken(userID uuid.UUID, sessionID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: s.registered(userID.String(), AudienceAccess, now, s.expiry),
	}
	return s.sign(claims)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims, AudienceAccess); err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) GenerateResetToken(email string) (string, error) {
	now := s.now()
	claims := ResetClaims{
		Email:            email,
		RegisteredClaims: s.registered(email, AudiencePasswordReset, now, s.resetExpiry),
	}
	return s.sign(claims)
}

// ValidateResetToken returns the email the reset token was issued for.
func (s *JWTService) ValidateResetToken(tokenString string) (string, error) {
	claims := &ResetClaims{}
	if err := s.parse(tokenString, claims, AudiencePasswordReset); err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (s *JWTService) registered(subject, audience string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
	}
}

func (s *JWTService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
