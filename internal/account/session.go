package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugh/go-crm/internal/auth"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

// Session is a signed-in user and the token bound to their session id.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login checks the credentials and starts a new session, which revokes every
// token issued for the previous one. Nothing is written unless the password
// matches.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrDeactivated
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &user.ID, models.ActivityLogin, fmt.Sprintf("%s logged in", user.FullName()))
	return session, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	sessionID := s.opts.NewSessionID()
	if err := s.users.UpdateSession(ctx, user.ID, sessionID, s.now()); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	user.SessionID = sessionID

	token, err := s.tokens.GenerateToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}
	return &Session{Token: token, User: stripSecrets(user)}, nil
}

// Authenticate resolves an access token to its user. The token's session must
// still be the user's current one and the user must be active.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user.SessionID == "" || user.SessionID != claims.SessionID || !user.IsActive() {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// Logout clears the stored session, so no token issued for it authenticates.
func (s *Service) Logout(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if err := s.users.UpdateSession(ctx, actor.ID, "", s.now()); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// stripSecrets returns a copy without the password hash or session id.
func stripSecrets(u *models.User) *models.User {
	c := *u
	c.PasswordHash = ""
	c.SessionID = ""
	return &c
}
