package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(t *testing.T, username string) (*Mailer, *[]sentMail) {
	t.Helper()

	m := NewMailer(MailerConfig{
		SMTP: config.SMTPConfig{
			Host:     "smtp.example.com",
			Port:     587,
			Username: username,
			Password: "pw",
			From:     "crm@example.com",
		},
		AppName:   "Go CRM",
		AppURL:    "https://crm.example.com",
		InviteTTL: 24 * time.Hour,
		OTPTTL:    10 * time.Minute,
	})
	m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	var sent []sentMail
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return nil
	}
	return m, &sent
}

func TestMailer_SendInvite(t *testing.T) {
	m, sent := newTestMailer(t, "")
	inviteID := uuid.New()

	err := m.SendInvite(context.Background(), "a@x.com", inviteID, "Ada Lovelace")
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Nil(t, mail.auth, "no auth without a username")
	assert.Equal(t, "crm@example.com", mail.from)
	assert.Equal(t, []string{"a@x.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: You're invited to Go CRM\r\n")
	assert.Contains(t, mail.msg, "Ada Lovelace has invited you to join Go CRM.")
	assert.Contains(t, mail.msg, "https://crm.example.com/accept-invite/"+inviteID.String())
	assert.Contains(t, mail.msg, "expires in 24 hours")
}

func TestMailer_SendPasswordResetCode(t *testing.T) {
	m, sent := newTestMailer(t, "user")

	err := m.SendPasswordResetCode(context.Background(), "a@x.com", "123456", "Ada")
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.NotNil(t, mail.auth)
	assert.Contains(t, mail.msg, "Hi Ada,")
	assert.Contains(t, mail.msg, "code is 123456.")
	assert.Contains(t, mail.msg, "expires in 10 minutes")
}

func TestMailer_SendError(t *testing.T) {
	m, _ := newTestMailer(t, "")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := m.SendPasswordResetCode(context.Background(), "a@x.com", "123456", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMailer_CanceledContext(t *testing.T) {
	m, sent := newTestMailer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendInvite(ctx, "a@x.com", uuid.New(), "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "10 minutes", humanDuration(10*time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}
