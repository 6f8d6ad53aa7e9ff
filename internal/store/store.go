// Package store persists the CRM records with gorm. Stores hold no policy:
// validation and state-machine rules live in the services that call them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict means a conditional update matched no row because another
	// request changed it first.
	ErrConflict = errors.New("record changed concurrently")
)

// Store bundles the per-entity stores over one connection pool.
type Store struct {
	db *gorm.DB

	Users      *UserStore
	Invites    *InviteStore
	OTPs       *OTPStore
	Activities *ActivityStore
	Clients    *ClientStore
	Contacts   *ContactStore
	Reports    *ReportStore
}

// New wires every store. queryLimit is the page size used when a list
// request does not ask for one.
func New(db *gorm.DB, queryLimit int) *Store {
	b := base{db: db, limit: queryLimit}
	return &Store{
		db:         db,
		Users:      &UserStore{b},
		Invites:    &InviteStore{b},
		OTPs:       &OTPStore{b},
		Activities: &ActivityStore{b},
		Clients:    &ClientStore{b},
		Contacts:   &ContactStore{b},
		Reports:    &ReportStore{b},
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type base struct {
	db    *gorm.DB
	limit int
}

// update applies fields to the row with the given id. A missing row is ErrNotFound.
func (b base) update(ctx context.Context, model interface{}, id uuid.UUID, fields map[string]interface{}) error {
	res := b.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (b base) first(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return translate(b.db.WithContext(ctx).Where(query, args...).First(dest).Error)
}

// translate maps driver and gorm errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// isUniqueViolation catches drivers that do not implement gorm's error translator.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
