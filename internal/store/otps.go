package store

import (
	"context"

	"github.com/hugh/go-crm/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OTPStore struct {
	base
}

// Save inserts the OTP or overwrites the existing one for the same email.
func (s *OTPStore) Save(ctx context.Context, otp *models.OTP) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "wrong_trials", "status", "updated_at"}),
		}).
		Create(otp).Error
}

func (s *OTPStore) Get(ctx context.Context, email string) (*models.OTP, error) {
	var otp models.OTP
	if err := s.first(ctx, &otp, "email = ?", email); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (s *OTPStore) IncrementWrongTrials(ctx context.Context, email string, at int64) error {
	return s.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"wrong_trials": gorm.Expr("wrong_trials + 1"),
			"updated_at":   at,
		}).Error
}

// MarkUsed consumes the OTP if it is still unused and still carries code.
// It reports whether this call was the one that consumed it.
func (s *OTPStore) MarkUsed(ctx context.Context, email, code string, at int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("email = ? AND code = ? AND status = ?", email, code, models.OTPStatusUnused).
		Updates(map[string]interface{}{
			"status":     models.OTPStatusUsed,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteExpired removes OTPs that expired before the cutoff.
func (s *OTPStore) DeleteExpired(ctx context.Context, before int64) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}
