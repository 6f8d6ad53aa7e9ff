package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

// AcceptInput is what the invited person submits to activate the account.
type AcceptInput struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Gender      models.Gender
	DateOfBirth *time.Time
	Phone       string
	Location    string
	Password    string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Setup invites the first SUPERADMIN. After a SUPERADMIN exists, or while
// the setup invite is still pending and unexpired, it fails with
// ErrAlreadyInitialized. An expired setup invite is reissued to email.
func (s *Service) Setup(ctx context.Context, email string) (*models.Invite, error) {
	email = normalizeEmail(email)

	exists, err := s.users.ExistsByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("checking for super admin: %w", err)
	}
	if exists {
		return nil, ErrAlreadyInitialized
	}

	var invite *models.Invite
	pending, err := s.invites.GetPendingByRole(ctx, models.RoleSuperAdmin)
	switch {
	case err == nil:
		if !pending.Expired(s.now()) {
			return nil, ErrAlreadyInitialized
		}
		if invite, err = s.reissueSetup(ctx, pending, email); err != nil {
			return nil, err
		}
	case errors.Is(err, store.ErrNotFound):
		if invite, err = s.createInvite(ctx, nil, email, models.RoleSuperAdmin); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("checking for setup invite: %w", err)
	}

	s.activity.Record(ctx, nil, models.ActivitySetup, fmt.Sprintf("Set up invite sent to %s", email))

	if err := s.notifier.SendInvite(ctx, email, invite.ID, s.opts.AppName); err != nil {
		return nil, fmt.Errorf("sending setup invite: %w", err)
	}

	s.logger.Info("setup invite created", "invite_id", invite.ID)
	return invite, nil
}

// reissueSetup renews an expired setup invite in place, readdressed to email.
func (s *Service) reissueSetup(ctx context.Context, invite *models.Invite, email string) (*models.Invite, error) {
	now := s.opts.Now()
	expiresAt := now.Add(s.opts.InviteTTL).Unix()
	if err := s.invites.Reissue(ctx, invite.ID, email, expiresAt, now.Unix()); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			// Accepted or renewed by a concurrent call.
			return nil, ErrAlreadyInitialized
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrDuplicateInvite
		}
		return nil, fmt.Errorf("reissuing setup invite: %w", err)
	}

	s.logger.Info("expired setup invite reissued", "invite_id", invite.ID)
	invite.Email = email
	invite.ExpiresAt = expiresAt
	invite.UpdatedAt = now.Unix()
	return invite, nil
}

// SendInvite invites email to join with role. Only existing users may invite,
// and nobody can be invited as SUPERADMIN.
func (s *Service) SendInvite(ctx context.Context, actor *models.User, email string, role models.Role) (*models.Invite, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !role.Valid() || role == models.RoleSuperAdmin {
		return nil, ErrInvalidRole
	}
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if _, err := s.invites.GetPendingByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateInvite
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up invite: %w", err)
	}

	invite, err := s.createInvite(ctx, &actor.ID, email, role)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &actor.ID, models.ActivityInvite, fmt.Sprintf("Invite sent to %s as %s", email, role))

	if err := s.notifier.SendInvite(ctx, email, invite.ID, actor.FullName()); err != nil {
		return nil, fmt.Errorf("sending invite: %w", err)
	}

	return invite, nil
}

func (s *Service) createInvite(ctx context.Context, actor *uuid.UUID, email string, role models.Role) (*models.Invite, error) {
	now := s.opts.Now()
	invite := &models.Invite{
		Email:     email,
		Role:      role,
		ExpiresAt: now.Add(s.opts.InviteTTL).Unix(),
		Status:    models.InviteStatusPending,
	}
	invite.ID = uuid.New()
	models.Stamp(&invite.Base, &invite.Audit, actor, now.Unix())

	if err := s.invites.Create(ctx, invite); err != nil {
		// The unique index on email catches a racing invite for the same address.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateInvite
		}
		return nil, fmt.Errorf("creating invite: %w", err)
	}
	return invite, nil
}

// ResendInvite pushes a pending invite's expiry out by the invite TTL and
// sends the email again.
func (s *Service) ResendInvite(ctx context.Context, actor *models.User, inviteID uuid.UUID) (*models.Invite, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("getting invite: %w", err)
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, ErrAlreadyAccepted
	}

	now := s.opts.Now()
	expiresAt := now.Add(s.opts.InviteTTL).Unix()
	if err := s.invites.RefreshExpiry(ctx, invite.ID, expiresAt, &actor.ID, now.Unix()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyAccepted
		}
		return nil, fmt.Errorf("refreshing invite: %w", err)
	}
	invite.ExpiresAt = expiresAt
	invite.UpdatedAt = now.Unix()
	invite.UpdatedBy = &actor.ID

	s.activity.Record(ctx, &actor.ID, models.ActivityInvite, fmt.Sprintf("Invite resent to %s", invite.Email))

	if err := s.notifier.SendInvite(ctx, invite.Email, invite.ID, actor.FullName()); err != nil {
		return nil, fmt.Errorf("resending invite: %w", err)
	}

	return invite, nil
}

// GetInvite is the public read behind the acceptance page. An expired invite
// is reported as expired whatever its status.
func (s *Service) GetInvite(ctx context.Context, inviteID uuid.UUID) (*models.Invite, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("getting invite: %w", err)
	}
	if invite.Expired(s.now()) {
		return nil, ErrInviteExpired
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, ErrAlreadyAccepted
	}
	return invite, nil
}

// AcceptInvite creates the invited user and marks the invite accepted, both
// or neither.
func (s *Service) AcceptInvite(ctx context.Context, inviteID uuid.UUID, in AcceptInput) (*models.User, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("getting invite: %w", err)
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, ErrAlreadyAccepted
	}
	if invite.Expired(s.now()) {
		return nil, ErrInviteExpired
	}

	if _, err := s.users.GetByEmail(ctx, invite.Email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	at := s.now()
	user := &models.User{
		Email:        invite.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		LastName:     strings.TrimSpace(in.LastName),
		Gender:       in.Gender,
		DateOfBirth:  in.DateOfBirth,
		Phone:        in.Phone,
		Location:     in.Location,
		Role:         invite.Role,
		Status:       models.UserStatusActive,
		PasswordHash: hash,
	}
	user.ID = uuid.New()
	models.Stamp(&user.Base, &user.Audit, nil, at)

	if err := s.invites.Accept(ctx, invite.ID, user, at); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, ErrAlreadyAccepted
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("accepting invite: %w", err)
	}

	s.activity.Record(ctx, &user.ID, models.ActivityInviteAccepted,
		fmt.Sprintf("%s accepted the invite as %s", user.FullName(), user.Role))

	return user, nil
}

// GetInvites lists pending invites.
func (s *Service) GetInvites(ctx context.Context, p store.ListParams) (store.Page[models.Invite], error) {
	return s.invites.List(ctx, p)
}
