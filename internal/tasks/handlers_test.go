package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/testutil"
	"github.com/hugh/go-crm/pkg/queue"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	invites []InviteEmailPayload
	resets  []PasswordResetEmailPayload
	err     error
}

func (m *recordingMailer) SendInvite(_ context.Context, to string, inviteID uuid.UUID, fromName string) error {
	m.invites = append(m.invites, InviteEmailPayload{To: to, InviteID: inviteID, FromName: fromName})
	return m.err
}

func (m *recordingMailer) SendPasswordResetCode(_ context.Context, to, code, firstName string) error {
	m.resets = append(m.resets, PasswordResetEmailPayload{To: to, Code: code, FirstName: firstName})
	return m.err
}

type capturedTask struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeEnqueuer struct {
	tasks []capturedTask
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, capturedTask{task: task, opts: opts})
	return &asynq.TaskInfo{ID: uuid.NewString(), Type: task.Type()}, nil
}

func optionValues(opts []asynq.Option) map[asynq.OptionType]interface{} {
	out := make(map[asynq.OptionType]interface{}, len(opts))
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

// TestQueueNotifier_RoundTrip enqueues through the notifier and runs the
// resulting tasks through the worker handler.
func TestQueueNotifier_RoundTrip(t *testing.T) {
	ctx := context.Background()
	enq := &fakeEnqueuer{}
	notifier := NewQueueNotifier(enq)
	inviteID := uuid.New()

	require.NoError(t, notifier.SendInvite(ctx, "a@x.com", inviteID, "Ada Lovelace"))
	require.NoError(t, notifier.SendPasswordResetCode(ctx, "b@x.com", "123456", "Bob"))
	require.Len(t, enq.tasks, 2)

	assert.Equal(t, TypeInviteEmail, enq.tasks[0].task.Type())
	assert.Equal(t, TypePasswordResetEmail, enq.tasks[1].task.Type())

	opts := optionValues(enq.tasks[0].opts)
	assert.Equal(t, QueueCritical, opts[asynq.QueueOpt])
	assert.Equal(t, emailMaxRetry, opts[asynq.MaxRetryOpt])

	mailer := &recordingMailer{}
	handler := NewHandler(mailer, nil, util.NewDiscardLogger())

	require.NoError(t, handler.HandleInviteEmail(ctx, enq.tasks[0].task))
	require.NoError(t, handler.HandlePasswordResetEmail(ctx, enq.tasks[1].task))

	assert.Equal(t, []InviteEmailPayload{{To: "a@x.com", InviteID: inviteID, FromName: "Ada Lovelace"}}, mailer.invites)
	assert.Equal(t, []PasswordResetEmailPayload{{To: "b@x.com", Code: "123456", FirstName: "Bob"}}, mailer.resets)
}

func TestQueueNotifier_EnqueueError(t *testing.T) {
	notifier := NewQueueNotifier(&fakeEnqueuer{err: errors.New("redis: connection refused")})

	err := notifier.SendInvite(context.Background(), "a@x.com", uuid.New(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), TypeInviteEmail)
}

func TestHandleEmail_InvalidPayload(t *testing.T) {
	handler := NewHandler(&recordingMailer{}, nil, util.NewDiscardLogger())

	tests := []struct {
		name string
		fn   func(context.Context, *asynq.Task) error
		typ  string
	}{
		{"invite", handler.HandleInviteEmail, TypeInviteEmail},
		{"password reset", handler.HandlePasswordResetEmail, TypePasswordResetEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(context.Background(), asynq.NewTask(tt.typ, []byte("invalid json")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unmarshal payload")
			assert.ErrorIs(t, err, asynq.SkipRetry, "bad payloads are not retried")
		})
	}
}

func TestHandleEmail_MailerErrorIsRetried(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp: 421 try again")}
	handler := NewHandler(mailer, nil, util.NewDiscardLogger())

	data, err := json.Marshal(PasswordResetEmailPayload{To: "a@x.com", Code: "1"})
	require.NoError(t, err)

	err = handler.HandlePasswordResetEmail(context.Background(), asynq.NewTask(TypePasswordResetEmail, data))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleHousekeeping(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	ctx := context.Background()

	now := testutil.Epoch
	otps := []models.OTP{
		{Email: "old@x.com", Code: "1", ExpiresAt: now.Add(-2 * time.Hour).Unix(), Status: models.OTPStatusUnused},
		{Email: "recent@x.com", Code: "2", ExpiresAt: now.Add(-30 * time.Minute).Unix(), Status: models.OTPStatusUsed},
		{Email: "live@x.com", Code: "3", ExpiresAt: now.Add(5 * time.Minute).Unix(), Status: models.OTPStatusUnused},
	}
	for i := range otps {
		require.NoError(t, setup.Store.OTPs.Save(ctx, &otps[i]))
	}

	handler := NewHandler(&recordingMailer{}, setup.Store.OTPs, util.NewDiscardLogger())
	handler.now = func() time.Time { return now }

	require.NoError(t, handler.HandleHousekeeping(ctx, NewHousekeepingTask()))

	var remaining []string
	require.NoError(t, setup.DB.Model(&models.OTP{}).Order("email").Pluck("email", &remaining).Error)
	assert.Equal(t, []string{"live@x.com", "recent@x.com"}, remaining)
}

type fakeRegistrar struct {
	cronspec string
	task     *asynq.Task
	opts     []asynq.Option
}

func (f *fakeRegistrar) Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error) {
	f.cronspec, f.task, f.opts = cronspec, task, opts
	return "entry-1", nil
}

func TestRegisterPeriodic(t *testing.T) {
	r := &fakeRegistrar{}

	id, err := RegisterPeriodic(r, "0 * * * *")
	require.NoError(t, err)
	assert.Equal(t, "entry-1", id)
	assert.Equal(t, "0 * * * *", r.cronspec)
	assert.Equal(t, TypeHousekeeping, r.task.Type())
	assert.Equal(t, QueueLow, optionValues(r.opts)[asynq.QueueOpt])

	_, err = RegisterPeriodic(&fakeRegistrar{}, "not a cron")
	assert.Error(t, err)
}

func TestRegisterHandlers(t *testing.T) {
	mux := asynq.NewServeMux()
	NewHandler(&recordingMailer{}, nil, util.NewDiscardLogger()).RegisterHandlers(mux)

	for _, typ := range []string{TypeInviteEmail, TypePasswordResetEmail, TypeHousekeeping} {
		h, pattern := mux.Handler(asynq.NewTask(typ, nil))
		assert.NotNil(t, h)
		assert.Equal(t, typ, pattern)
	}
}

func TestQueuesAreServed(t *testing.T) {
	for _, q := range []string{QueueCritical, QueueDefault, QueueLow} {
		assert.Positive(t, queue.Queues[q], "worker does not serve queue %q", q)
	}
}
