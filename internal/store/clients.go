package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
)

var clientSorts = sortOrders{
	"name-asc":  "name ASC, id ASC",
	"name-desc": "name DESC, id ASC",
	"date-asc":  "created_at ASC, id ASC",
	"date-desc": "created_at DESC, id ASC",
}

type ClientStore struct {
	base
}

// ClientUpdate names the mutable client columns; nil fields are unchanged.
// SealedBankingDetails must already be encrypted.
type ClientUpdate struct {
	Name                 *string
	Industry             *string
	Email                *string
	Phone                *string
	LogoURL              *string
	SealedBankingDetails *string
	ResponsibleUserID    *uuid.UUID
}

type ClientFilter struct {
	ResponsibleUserID *uuid.UUID
}

func (s *ClientStore) Create(ctx context.Context, c *models.Client) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *ClientStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	if err := s.first(ctx, &c, "id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClientStore) GetByName(ctx context.Context, name string) (*models.Client, error) {
	var c models.Client
	if err := s.first(ctx, &c, "name = ?", name); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClientStore) Update(ctx context.Context, id uuid.UUID, u ClientUpdate, by uuid.UUID, at int64) error {
	fields := map[string]interface{}{
		"updated_by": by,
		"updated_at": at,
	}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Industry != nil {
		fields["industry"] = *u.Industry
	}
	if u.Email != nil {
		fields["email"] = *u.Email
	}
	if u.Phone != nil {
		fields["phone"] = *u.Phone
	}
	if u.LogoURL != nil {
		fields["logo_url"] = *u.LogoURL
	}
	if u.SealedBankingDetails != nil {
		fields["banking_details"] = *u.SealedBankingDetails
	}
	if u.ResponsibleUserID != nil {
		fields["responsible_user_id"] = *u.ResponsibleUserID
	}
	return s.update(ctx, &models.Client{}, id, fields)
}

func (s *ClientStore) UpdateLogo(ctx context.Context, id uuid.UUID, location string, by uuid.UUID, at int64) error {
	return s.Update(ctx, id, ClientUpdate{LogoURL: &location}, by, at)
}

// CountDependents returns how many contacts and reports reference the client.
func (s *ClientStore) CountDependents(ctx context.Context, id uuid.UUID) (contacts, reports int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Contact{}).Where("client_id = ?", id).Count(&contacts).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&models.Report{}).Where("client_id = ?", id).Count(&reports).Error; err != nil {
		return 0, 0, err
	}
	return contacts, reports, nil
}

func (s *ClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ClientStore) List(ctx context.Context, p ListParams, f ClientFilter) (Page[models.Client], error) {
	p = p.normalize(s.limit)
	return paginate[models.Client](ctx, s.db, p, clientSorts.resolve(p.Sort, clientSorts["name-asc"]),
		func(db *gorm.DB) *gorm.DB {
			if f.ResponsibleUserID != nil {
				db = db.Where("responsible_user_id = ?", *f.ResponsibleUserID)
			}
			return db
		},
		searchScope(p.Search, "name", "email"),
	)
}
