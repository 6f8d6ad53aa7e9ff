package models

type OTPStatus string

const (
	OTPStatusUnused OTPStatus = "UNUSED"
	OTPStatusUsed   OTPStatus = "USED"
)

// OTP is the password-reset code for an email. There is at most one per
// email; requesting a new code overwrites the previous one.
type OTP struct {
	Email       string    `gorm:"primaryKey" json:"email"`
	Code        string    `gorm:"not null" json:"-"`
	ExpiresAt   int64     `gorm:"not null;index" json:"expires_at"`
	WrongTrials int       `gorm:"not null;default:0" json:"wrong_trials"`
	Status      OTPStatus `gorm:"type:varchar(10);not null" json:"status"`
	CreatedAt   int64     `gorm:"autoCreateTime:false;not null" json:"created_at"`
	UpdatedAt   int64     `gorm:"autoUpdateTime:false;not null" json:"updated_at"`
}

func (OTP) TableName() string {
	return "otps"
}
