package models

import "github.com/google/uuid"

type ActivityKind string

const (
	ActivitySetup          ActivityKind = "Setup"
	ActivityInvite         ActivityKind = "Invite"
	ActivityInviteAccepted ActivityKind = "Invite Accepted"
	ActivityLogin          ActivityKind = "Login"
	ActivitySettings       ActivityKind = "Settings"
	ActivityClient         ActivityKind = "Client"
	ActivityContact        ActivityKind = "Contact"
	ActivityReport         ActivityKind = "Report"
)

func (k ActivityKind) Valid() bool {
	switch k {
	case ActivitySetup, ActivityInvite, ActivityInviteAccepted, ActivityLogin,
		ActivitySettings, ActivityClient, ActivityContact, ActivityReport:
		return true
	}
	return false
}

// Activity is an append-only audit log entry.
type Activity struct {
	Base
	UserID      *uuid.UUID   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Kind        ActivityKind `gorm:"type:varchar(32);not null;index" json:"kind"`
	Description string       `gorm:"type:text;not null" json:"description"`
}

func (Activity) TableName() string {
	return "activities"
}
