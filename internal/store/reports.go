package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
)

var reportSorts = sortOrders{
	"title-asc":  "title ASC, id ASC",
	"title-desc": "title DESC, id ASC",
	"date-asc":   "created_at ASC, id ASC",
	"date-desc":  "created_at DESC, id ASC",
}

type ReportStore struct {
	base
}

type ReportUpdate struct {
	Title *string
	Text  *string
}

type ReportFilter struct {
	ClientID  *uuid.UUID
	ContactID *uuid.UUID
	UserID    *uuid.UUID
}

// Create inserts the report and all of its files, or nothing.
func (s *ReportStore) Create(ctx context.Context, r *models.Report, files []models.ReportFile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Files").Create(r).Error; err != nil {
			return translate(err)
		}
		if len(files) == 0 {
			return nil
		}
		for i := range files {
			files[i].ReportID = r.ID
		}
		if err := tx.Create(&files).Error; err != nil {
			return translate(err)
		}
		r.Files = files
		return nil
	})
}

func (s *ReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *ReportStore) Update(ctx context.Context, id uuid.UUID, u ReportUpdate, by uuid.UUID, at int64) error {
	fields := map[string]interface{}{
		"updated_by": by,
		"updated_at": at,
	}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Text != nil {
		fields["text"] = *u.Text
	}
	return s.update(ctx, &models.Report{}, id, fields)
}

func (s *ReportStore) AddFile(ctx context.Context, f *models.ReportFile) error {
	return translate(s.db.WithContext(ctx).Create(f).Error)
}

func (s *ReportStore) GetFile(ctx context.Context, reportID, fileID uuid.UUID) (*models.ReportFile, error) {
	var f models.ReportFile
	if err := s.first(ctx, &f, "id = ? AND report_id = ?", fileID, reportID); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *ReportStore) DeleteFile(ctx context.Context, reportID, fileID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND report_id = ?", fileID, reportID).Delete(&models.ReportFile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the report and its file rows together.
func (s *ReportStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&models.ReportFile{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Report{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *ReportStore) List(ctx context.Context, p ListParams, f ReportFilter) (Page[models.Report], error) {
	p = p.normalize(s.limit)
	return paginate[models.Report](ctx, s.db, p, reportSorts.resolve(p.Sort, reportSorts["title-asc"]),
		func(db *gorm.DB) *gorm.DB {
			if f.ClientID != nil {
				db = db.Where("client_id = ?", *f.ClientID)
			}
			if f.ContactID != nil {
				db = db.Where("contact_id = ?", *f.ContactID)
			}
			if f.UserID != nil {
				db = db.Where("user_id = ?", *f.UserID)
			}
			return db
		},
		searchScope(p.Search, "title"),
	)
}
