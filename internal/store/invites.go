package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
)

var inviteSorts = sortOrders{
	"date-asc":   "created_at ASC, id ASC",
	"date-desc":  "created_at DESC, id ASC",
	"email-asc":  "email ASC",
	"email-desc": "email DESC",
}

type InviteStore struct {
	base
}

func (s *InviteStore) Create(ctx context.Context, invite *models.Invite) error {
	return translate(s.db.WithContext(ctx).Create(invite).Error)
}

func (s *InviteStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	var invite models.Invite
	if err := s.first(ctx, &invite, "id = ?", id); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (s *InviteStore) GetPendingByEmail(ctx context.Context, email string) (*models.Invite, error) {
	var invite models.Invite
	if err := s.first(ctx, &invite, "email = ? AND status = ?", email, models.InviteStatusPending); err != nil {
		return nil, err
	}
	return &invite, nil
}

// GetPendingByRole returns the oldest unaccepted invite for role.
func (s *InviteStore) GetPendingByRole(ctx context.Context, role models.Role) (*models.Invite, error) {
	var invite models.Invite
	err := s.db.WithContext(ctx).
		Where("role = ? AND status = ?", role, models.InviteStatusPending).
		Order("created_at ASC").
		First(&invite).Error
	if err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}

// Reissue points a pending invite that expired before at to email and gives
// it a new expiry. ErrConflict means it was accepted or renewed meanwhile.
func (s *InviteStore) Reissue(ctx context.Context, id uuid.UUID, email string, expiresAt, at int64) error {
	res := s.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND status = ? AND expires_at < ?", id, models.InviteStatusPending, at).
		Updates(map[string]interface{}{
			"email":      email,
			"expires_at": expiresAt,
			"updated_at": at,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// RefreshExpiry moves a pending invite's expiry. Accepted invites are left
// alone and reported as ErrConflict.
func (s *InviteStore) RefreshExpiry(ctx context.Context, id uuid.UUID, expiresAt int64, by *uuid.UUID, at int64) error {
	res := s.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Updates(map[string]interface{}{
			"expires_at": expiresAt,
			"updated_by": by,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Accept flips the invite to ACCEPTED and inserts user in one transaction.
// If the invite is no longer pending nothing is written and ErrConflict is
// returned; a user with the same email yields ErrDuplicate.
func (s *InviteStore) Accept(ctx context.Context, inviteID uuid.UUID, user *models.User, at int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND status = ?", inviteID, models.InviteStatusPending).
			Updates(map[string]interface{}{
				"status":     models.InviteStatusAccepted,
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return translate(tx.Create(user).Error)
	})
}

// List returns pending invites only.
func (s *InviteStore) List(ctx context.Context, p ListParams) (Page[models.Invite], error) {
	p = p.normalize(s.limit)
	return paginate[models.Invite](ctx, s.db, p, inviteSorts.resolve(p.Sort, inviteSorts["date-asc"]),
		func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.InviteStatusPending)
		},
		searchScope(p.Search, "email"),
	)
}
