// Package notify delivers account emails: invites and password-reset codes.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Notifier is implemented by anything that can get an account email to a
// user, whether it sends the mail itself or queues it for a worker.
type Notifier interface {
	SendInvite(ctx context.Context, to string, inviteID uuid.UUID, fromName string) error
	SendPasswordResetCode(ctx context.Context, to, code, firstName string) error
}

// LogNotifier writes notifications to the log instead of sending them.
// The server falls back to it when Redis is unavailable.
type LogNotifier struct {
	logger      *slog.Logger
	revealCodes bool
}

// NewLogNotifier returns a LogNotifier; revealCodes includes reset codes in
// the log and must only be set in development.
func NewLogNotifier(logger *slog.Logger, revealCodes bool) *LogNotifier {
	return &LogNotifier{logger: logger, revealCodes: revealCodes}
}

func (n *LogNotifier) SendInvite(ctx context.Context, to string, inviteID uuid.UUID, fromName string) error {
	n.logger.InfoContext(ctx, "invite notification", "to", to, "invite_id", inviteID, "from", fromName)
	return nil
}

func (n *LogNotifier) SendPasswordResetCode(ctx context.Context, to, code, firstName string) error {
	attrs := []any{"to", to}
	if n.revealCodes {
		attrs = append(attrs, "code", code)
	}
	n.logger.InfoContext(ctx, "password reset notification", attrs...)
	return nil
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*Mailer)(nil)
)
