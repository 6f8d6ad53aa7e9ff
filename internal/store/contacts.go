package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
)

var contactSorts = sortOrders{
	"name-asc":  "name ASC, id ASC",
	"name-desc": "name DESC, id ASC",
	"date-asc":  "created_at ASC, id ASC",
	"date-desc": "created_at DESC, id ASC",
}

type ContactStore struct {
	base
}

type ContactUpdate struct {
	Name              *string
	Email             *string
	Phone             *string
	Role              *string
	Title             *string
	ResponsibleUserID *uuid.UUID
}

type ContactFilter struct {
	ClientID          *uuid.UUID
	ResponsibleUserID *uuid.UUID
}

func (s *ContactStore) Create(ctx context.Context, c *models.Contact) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *ContactStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var c models.Contact
	if err := s.first(ctx, &c, "id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ContactStore) Update(ctx context.Context, id uuid.UUID, u ContactUpdate, by uuid.UUID, at int64) error {
	fields := map[string]interface{}{
		"updated_by": by,
		"updated_at": at,
	}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Email != nil {
		fields["email"] = *u.Email
	}
	if u.Phone != nil {
		fields["phone"] = *u.Phone
	}
	if u.Role != nil {
		fields["role"] = *u.Role
	}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.ResponsibleUserID != nil {
		fields["responsible_user_id"] = *u.ResponsibleUserID
	}
	return s.update(ctx, &models.Contact{}, id, fields)
}

func (s *ContactStore) CountReports(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).Where("contact_id = ?", id).Count(&n).Error
	return n, err
}

func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ContactStore) List(ctx context.Context, p ListParams, f ContactFilter) (Page[models.Contact], error) {
	p = p.normalize(s.limit)
	return paginate[models.Contact](ctx, s.db, p, contactSorts.resolve(p.Sort, contactSorts["name-asc"]),
		func(db *gorm.DB) *gorm.DB {
			if f.ClientID != nil {
				db = db.Where("client_id = ?", *f.ClientID)
			}
			if f.ResponsibleUserID != nil {
				db = db.Where("responsible_user_id = ?", *f.ResponsibleUserID)
			}
			return db
		},
		searchScope(p.Search, "name", "email"),
	)
}
