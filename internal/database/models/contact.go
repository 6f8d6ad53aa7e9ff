package models

import "github.com/google/uuid"

type Contact struct {
	Base
	Audit
	ClientID          uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	Name              string    `gorm:"not null;index" json:"name"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Role              string    `json:"role,omitempty"`
	Title             string    `json:"title,omitempty"`
	ResponsibleUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"responsible_user_id"`
}

func (Contact) TableName() string {
	return "contacts"
}
