package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/internal/notify"
)

// otpRetention is how long an expired OTP is kept before housekeeping drops it.
const otpRetention = time.Hour

// ExpiredOTPDeleter is the OTP store method housekeeping uses.
type ExpiredOTPDeleter interface {
	DeleteExpired(ctx context.Context, before int64) (int64, error)
}

type Handler struct {
	mailer notify.Notifier
	otps   ExpiredOTPDeleter
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(mailer notify.Notifier, otps ExpiredOTPDeleter, logger *slog.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		otps:   otps,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInviteEmail, h.HandleInviteEmail)
	mux.HandleFunc(TypePasswordResetEmail, h.HandlePasswordResetEmail)
	mux.HandleFunc(TypeHousekeeping, h.HandleHousekeeping)
}

func (h *Handler) HandleInviteEmail(ctx context.Context, t *asynq.Task) error {
	var payload InviteEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := h.mailer.SendInvite(ctx, payload.To, payload.InviteID, payload.FromName); err != nil {
		h.logger.Error("invite email failed", "invite_id", payload.InviteID, "error", err)
		return err
	}

	h.logger.Info("sent invite email", "invite_id", payload.InviteID)
	return nil
}

func (h *Handler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := h.mailer.SendPasswordResetCode(ctx, payload.To, payload.Code, payload.FirstName); err != nil {
		h.logger.Error("reset email failed", "error", err)
		return err
	}

	h.logger.Info("sent password reset email")
	return nil
}

// HandleHousekeeping deletes OTPs that expired more than otpRetention ago.
func (h *Handler) HandleHousekeeping(ctx context.Context, t *asynq.Task) error {
	cutoff := h.now().Add(-otpRetention).Unix()

	deleted, err := h.otps.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("deleting expired otps: %w", err)
	}

	h.logger.Info("housekeeping completed", "otps_deleted", deleted)
	return nil
}
