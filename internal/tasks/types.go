package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInviteEmail        = "email:invite"
	TypePasswordResetEmail = "email:password_reset"
	TypeHousekeeping       = "maintenance:housekeeping"
)

// Queue names, matching the weights in pkg/queue.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// InviteEmailPayload contains the data for an invite email
type InviteEmailPayload struct {
	To       string    `json:"to"`
	InviteID uuid.UUID `json:"invite_id"`
	FromName string    `json:"from_name"`
}

func NewInviteEmailTask(payload InviteEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInviteEmail, data), nil
}

// PasswordResetEmailPayload contains the data for a reset-code email.
// The code travels through Redis; the task is retried for a few minutes at
// most and the code itself expires with the OTP.
type PasswordResetEmailPayload struct {
	To        string `json:"to"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
}

func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePasswordResetEmail, data), nil
}

// HousekeepingPayload is empty - the job sweeps every table it knows about
type HousekeepingPayload struct{}

func NewHousekeepingTask() *asynq.Task {
	return asynq.NewTask(TypeHousekeeping, nil)
}
