package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

// GetUser returns the actor's current record.
func (s *Service) GetUser(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return s.GetUserByID(ctx, actor.ID)
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return stripSecrets(user), nil
}

// GetUsers lists active users.
func (s *Service) GetUsers(ctx context.Context, p store.ListParams, f store.UserFilter) (store.Page[models.User], error) {
	return s.users.List(ctx, p, f)
}

// UpdateInfo changes the actor's profile. Fields left nil keep their value.
func (s *Service) UpdateInfo(ctx context.Context, actor *models.User, u store.UserInfoUpdate) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if u.Empty() {
		return nil, ErrNothingToUpdate
	}

	if err := s.users.UpdateInfo(ctx, actor.ID, u, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	user, err := s.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &actor.ID, models.ActivitySettings, fmt.Sprintf("%s updated their profile", user.FullName()))
	return user, nil
}

// DeactivateUser blocks a user from signing in and ends their session.
// Nobody can deactivate themselves or the SUPERADMIN.
func (s *Service) DeactivateUser(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}
	if target.ID == actor.ID {
		return ErrSelfDeactivation
	}
	if target.Role == models.RoleSuperAdmin {
		return ErrProtectedUser
	}

	err = s.users.UpdateStatus(ctx, target.ID, store.StatusUpdate{
		Status:       models.UserStatusDeactivated,
		ClearSession: true,
		By:           actor.ID,
		At:           s.now(),
	})
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}

	s.activity.Record(ctx, &actor.ID, models.ActivitySettings,
		fmt.Sprintf("%s deactivated %s", actor.FullName(), target.Email))
	s.logger.Info("user deactivated", "user_id", target.ID, "by", actor.ID)
	return nil
}

// MakeAdmin promotes an active user to ADMIN.
func (s *Service) MakeAdmin(ctx context.Context, actor *models.User, userID uuid.UUID) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if !target.IsActive() {
		return nil, ErrUserDeactivated
	}
	if target.Role == models.RoleSuperAdmin {
		return nil, ErrProtectedUser
	}

	at := s.now()
	if err := s.users.UpdateRole(ctx, target.ID, models.RoleAdmin, actor.ID, at); err != nil {
		return nil, fmt.Errorf("updating role: %w", err)
	}
	target.Role = models.RoleAdmin
	target.UpdatedAt = at
	target.UpdatedBy = &actor.ID

	s.activity.Record(ctx, &actor.ID, models.ActivitySettings,
		fmt.Sprintf("%s made %s an admin", actor.FullName(), target.Email))
	return stripSecrets(target), nil
}
