package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/hugh/go-crm/internal/apperr"
	"github.com/hugh/go-crm/internal/auth"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperr.New(apperr.Validation, "password must be at most 72 bytes")
		}
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// UpdatePassword changes the actor's password and rotates their session.
// Every other token dies; the returned session carries the replacement.
func (s *Service) UpdatePassword(ctx context.Context, actor *models.User, oldPassword, newPassword string) (*Session, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	sessionID := s.opts.NewSessionID()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, sessionID, s.now()); err != nil {
		return nil, fmt.Errorf("updating password: %w", err)
	}
	user.PasswordHash = hash
	user.SessionID = sessionID

	token, err := s.tokens.GenerateToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.activity.Record(ctx, &user.ID, models.ActivitySettings, fmt.Sprintf("%s changed their password", user.FullName()))
	return &Session{Token: token, User: stripSecrets(user)}, nil
}

// ForgotPassword emails a fresh reset code. An unknown email succeeds
// silently so callers cannot probe for accounts. The throttle is applied
// before the lookup for the same reason.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, "forgot-password:"+email)
		if err != nil {
			s.logger.Warn("reset throttle unavailable", "error", err)
		} else if !ok {
			return ErrRateLimited
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	code, err := s.opts.NewOTP()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	now := s.opts.Now()
	otp := &models.OTP{
		Email:       email,
		Code:        code,
		ExpiresAt:   now.Add(s.opts.OTPTTL).Unix(),
		WrongTrials: 0,
		Status:      models.OTPStatusUnused,
		CreatedAt:   now.Unix(),
		UpdatedAt:   now.Unix(),
	}
	if err := s.otps.Save(ctx, otp); err != nil {
		return fmt.Errorf("saving code: %w", err)
	}

	if err := s.notifier.SendPasswordResetCode(ctx, email, code, user.FirstName); err != nil {
		return fmt.Errorf("sending reset code: %w", err)
	}
	return nil
}

// VerifyOTP consumes the reset code and returns a reset token. Wrong codes
// count against the OTP; once the attempts are used up even the right code
// fails until a new one is requested.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)

	otp, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidOTP
		}
		return "", fmt.Errorf("loading code: %w", err)
	}

	now := s.now()
	switch {
	case otp.Status == models.OTPStatusUsed,
		now > otp.ExpiresAt,
		otp.WrongTrials >= s.opts.OTPMaxAttempts:
		return "", ErrInvalidOTP
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		if err := s.otps.IncrementWrongTrials(ctx, email, now); err != nil {
			s.logger.Warn("failed to count wrong code", "error", err)
		}
		return "", ErrInvalidOTP
	}

	// Only one of several concurrent verifications flips the row.
	used, err := s.otps.MarkUsed(ctx, email, code, now)
	if err != nil {
		return "", fmt.Errorf("consuming code: %w", err)
	}
	if !used {
		return "", ErrInvalidOTP
	}

	token, err := s.tokens.GenerateResetToken(email)
	if err != nil {
		return "", fmt.Errorf("signing reset token: %w", err)
	}
	return token, nil
}

// ResetPassword sets a new password for the email in a reset token and ends
// the user's session.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.ValidateResetToken(token)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePasswordByEmail(ctx, email, hash, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("resetting password: %w", err)
	}

	s.activity.Record(ctx, &user.ID, models.ActivitySettings, fmt.Sprintf("%s reset their password", user.FullName()))
	return nil
}
