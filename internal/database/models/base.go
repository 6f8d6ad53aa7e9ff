package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with UUID primary key and unix-second timestamps.
// Timestamps come from the service clock, so gorm's automatic tracking is off.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt int64     `gorm:"autoCreateTime:false;not null;index" json:"created_at"`
	UpdatedAt int64     `gorm:"autoUpdateTime:false;not null" json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Audit records which user created and last modified a row.
// Both are nil for rows created by the system (setup, invite acceptance).
type Audit struct {
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
}

// Stamp sets the creation and modification fields for a new row.
func Stamp(b *Base, a *Audit, actor *uuid.UUID, at int64) {
	b.CreatedAt = at
	b.UpdatedAt = at
	if a != nil {
		a.CreatedBy = actor
		a.UpdatedBy = actor
	}
}
