package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
)

var activitySorts = sortOrders{
	"date-asc":  "created_at ASC, id ASC",
	"date-desc": "created_at DESC, id ASC",
}

type ActivityStore struct {
	base
}

type ActivityFilter struct {
	Kind   models.ActivityKind
	UserID *uuid.UUID
}

func (s *ActivityStore) Create(ctx context.Context, a *models.Activity) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *ActivityStore) List(ctx context.Context, p ListParams, f ActivityFilter) (Page[models.Activity], error) {
	p = p.normalize(s.limit)
	return paginate[models.Activity](ctx, s.db, p, activitySorts.resolve(p.Sort, activitySorts["date-asc"]),
		func(db *gorm.DB) *gorm.DB {
			if f.Kind != "" {
				db = db.Where("kind = ?", f.Kind)
			}
			if f.UserID != nil {
				db = db.Where("user_id = ?", *f.UserID)
			}
			return db
		},
		searchScope(p.Search, "description"),
	)
}
