package models

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
)

// Invite admits one email address as a user with a pre-assigned role.
type Invite struct {
	Base
	Audit
	Email     string       `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role         `gorm:"type:varchar(20);not null" json:"role"`
	ExpiresAt int64        `gorm:"not null" json:"expires_at"`
	Status    InviteStatus `gorm:"type:varchar(20);not null;index" json:"status"`
}

func (Invite) TableName() string {
	return "invites"
}

func (i *Invite) Expired(now int64) bool {
	return now > i.ExpiresAt
}
