package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
)

var userSorts = sortOrders{
	"name-asc":  "last_name ASC, first_name ASC, id ASC",
	"name-desc": "last_name DESC, first_name DESC, id ASC",
	"date-asc":  "created_at ASC, id ASC",
	"date-desc": "created_at DESC, id ASC",
}

type UserStore struct {
	base
}

// UserInfoUpdate names the profile fields a user may change.
// A nil field is left unchanged.
type UserInfoUpdate struct {
	FirstName   *string
	MiddleName  *string
	LastName    *string
	Gender      *models.Gender
	DateOfBirth *time.Time
	Phone       *string
	Location    *string
}

// Empty reports whether the update would change nothing.
func (u UserInfoUpdate) Empty() bool {
	return u.FirstName == nil && u.MiddleName == nil && u.LastName == nil &&
		u.Gender == nil && u.DateOfBirth == nil && u.Phone == nil && u.Location == nil
}

// StatusUpdate changes a user's account status.
type StatusUpdate struct {
	Status       models.UserStatus
	ClearSession bool
	By           uuid.UUID
	At           int64
}

type UserFilter struct {
	Role models.Role
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.first(ctx, &user, "id = ?", id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.first(ctx, &user, "email = ?", email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) ExistsByRole(ctx context.Context, role models.Role) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateSession stores sessionID; an empty id logs every token out.
func (s *UserStore) UpdateSession(ctx context.Context, id uuid.UUID, sessionID string, at int64) error {
	return s.update(ctx, &models.User{}, id, map[string]interface{}{
		"session_id": sessionID,
		"updated_at": at,
	})
}

// UpdatePassword replaces the hash and the session id together.
func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash, sessionID string, at int64) error {
	return s.update(ctx, &models.User{}, id, map[string]interface{}{
		"password_hash": hash,
		"session_id":    sessionID,
		"updated_at":    at,
	})
}

// UpdatePasswordByEmail replaces the hash and clears the session.
func (s *UserStore) UpdatePasswordByEmail(ctx context.Context, email, hash string, at int64) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"session_id":    "",
			"updated_at":    at,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdateStatus(ctx context.Context, id uuid.UUID, u StatusUpdate) error {
	fields := map[string]interface{}{
		"status":     u.Status,
		"updated_by": u.By,
		"updated_at": u.At,
	}
	if u.ClearSession {
		fields["session_id"] = ""
	}
	return s.update(ctx, &models.User{}, id, fields)
}

func (s *UserStore) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role, by uuid.UUID, at int64) error {
	return s.update(ctx, &models.User{}, id, map[string]interface{}{
		"role":       role,
		"updated_by": by,
		"updated_at": at,
	})
}

func (s *UserStore) UpdateInfo(ctx context.Context, id uuid.UUID, u UserInfoUpdate, at int64) error {
	fields := map[string]interface{}{
		"updated_by": id,
		"updated_at": at,
	}
	if u.FirstName != nil {
		fields["first_name"] = *u.FirstName
	}
	if u.MiddleName != nil {
		fields["middle_name"] = *u.MiddleName
	}
	if u.LastName != nil {
		fields["last_name"] = *u.LastName
	}
	if u.Gender != nil {
		fields["gender"] = *u.Gender
	}
	if u.DateOfBirth != nil {
		fields["date_of_birth"] = *u.DateOfBirth
	}
	if u.Phone != nil {
		fields["phone"] = *u.Phone
	}
	if u.Location != nil {
		fields["location"] = *u.Location
	}
	return s.update(ctx, &models.User{}, id, fields)
}

// List returns active users only.
func (s *UserStore) List(ctx context.Context, p ListParams, f UserFilter) (Page[models.User], error) {
	p = p.normalize(s.limit)
	return paginate[models.User](ctx, s.db, p, userSorts.resolve(p.Sort, userSorts["name-asc"]),
		func(db *gorm.DB) *gorm.DB {
			db = db.Where("status = ?", models.UserStatusActive)
			if f.Role != "" {
				db = db.Where("role = ?", f.Role)
			}
			return db
		},
		searchScope(p.Search, "first_name", "last_name", "email"),
	)
}
