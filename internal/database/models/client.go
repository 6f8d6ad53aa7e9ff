package models

import "github.com/google/uuid"

type Client struct {
	Base
	Audit
	Name              string    `gorm:"uniqueIndex;not null" json:"name"`
	Industry          string    `json:"industry,omitempty"`
	LogoURL           string    `json:"logo_url,omitempty"`
	Email             string    `gorm:"index" json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	ResponsibleUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"responsible_user_id"`

	// Age-encrypted, base64 text. Never leaves the service in this form.
	SealedBankingDetails string `gorm:"column:banking_details;type:text" json:"-"`
	// Decrypted copy filled in by the client service on reads.
	BankingDetails string `gorm:"-" json:"banking_details,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}
