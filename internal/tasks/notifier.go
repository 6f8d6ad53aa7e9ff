package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/internal/notify"
)

const (
	emailMaxRetry = 5
	emailTimeout  = 30 * time.Second
)

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands account emails to the worker instead of sending them
// in the request.
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

var _ notify.Notifier = (*QueueNotifier)(nil)

func (n *QueueNotifier) SendInvite(ctx context.Context, to string, inviteID uuid.UUID, fromName string) error {
	task, err := NewInviteEmailTask(InviteEmailPayload{To: to, InviteID: inviteID, FromName: fromName})
	if err != nil {
		return fmt.Errorf("creating invite task: %w", err)
	}
	return n.enqueue(ctx, task)
}

func (n *QueueNotifier) SendPasswordResetCode(ctx context.Context, to, code, firstName string) error {
	task, err := NewPasswordResetEmailTask(PasswordResetEmailPayload{To: to, Code: code, FirstName: firstName})
	if err != nil {
		return fmt.Errorf("creating reset task: %w", err)
	}
	return n.enqueue(ctx, task)
}

func (n *QueueNotifier) enqueue(ctx context.Context, task *asynq.Task) error {
	_, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(emailMaxRetry),
		asynq.Timeout(emailTimeout),
	)
	if err != nil {
		return fmt.Errorf("enqueueing %s: %w", task.Type(), err)
	}
	return nil
}
