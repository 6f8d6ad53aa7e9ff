package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive      UserStatus = "ACTIVE"
	UserStatusDeactivated UserStatus = "DEACTIVATED"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type User struct {
	Base
	Audit
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	FirstName   string     `gorm:"not null" json:"first_name"`
	MiddleName  string     `json:"middle_name,omitempty"`
	LastName    string     `gorm:"not null;index" json:"last_name"`
	Gender      Gender     `gorm:"type:varchar(10)" json:"gender,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Location    string     `json:"location,omitempty"`
	Role        Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	Status      UserStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	PasswordHash string `gorm:"not null" json:"-"`
	// SessionID is bound into every auth token; rotating it revokes them.
	SessionID string `json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsAdmin reports whether the user may manage invites and accounts.
func (u *User) IsAdmin() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleAdmin
}
