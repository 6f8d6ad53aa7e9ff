package models

import "github.com/google/uuid"

type Report struct {
	Base
	Audit
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ClientID  uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	ContactID uuid.UUID `gorm:"type:uuid;index;not null" json:"contact_id"`
	Title     string    `gorm:"not null" json:"title"`
	Text      string    `gorm:"type:text" json:"text"`

	Files []ReportFile `gorm:"foreignKey:ReportID" json:"files,omitempty"`
}

func (Report) TableName() string {
	return "reports"
}

// ReportFile is an attachment stored in object storage under Key.
type ReportFile struct {
	Base
	ReportID     uuid.UUID `gorm:"type:uuid;index;not null" json:"report_id"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	Key          string    `gorm:"not null" json:"-"`
	Location     string    `gorm:"not null" json:"location"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
}

func (ReportFile) TableName() string {
	return "report_files"
}
