package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/pkg/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailerConfig carries what the message bodies need besides SMTP settings.
type MailerConfig struct {
	SMTP      config.SMTPConfig
	AppName   string
	AppURL    string
	InviteTTL time.Duration
	OTPTTL    time.Duration
}

// Mailer sends plain-text account emails over SMTP.
type Mailer struct {
	cfg  MailerConfig
	send sendFunc
	now  func() time.Time
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (m *Mailer) SendInvite(ctx context.Context, to string, inviteID uuid.UUID, fromName string) error {
	link := fmt.Sprintf("%s/accept-invite/%s", m.cfg.AppURL, inviteID)
	body := fmt.Sprintf(
		"Hello,\n\n%s has invited you to join %s.\n\nAccept your invite here:\n%s\n\nThe link expires in %s.\n",
		fromName, m.cfg.AppName, link, humanDuration(m.cfg.InviteTTL),
	)
	return m.deliver(ctx, to, fmt.Sprintf("You're invited to %s", m.cfg.AppName), body)
}

func (m *Mailer) SendPasswordResetCode(ctx context.Context, to, code, firstName string) error {
	greeting := "Hello"
	if firstName != "" {
		greeting = "Hi " + firstName
	}
	body := fmt.Sprintf(
		"%s,\n\nYour %s password reset code is %s.\n\nIt expires in %s. If you did not ask for a reset, ignore this email.\n",
		greeting, m.cfg.AppName, code, humanDuration(m.cfg.OTPTTL),
	)
	return m.deliver(ctx, to, "Your password reset code", body)
}

func (m *Mailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTP.Username, m.cfg.SMTP.Password, m.cfg.SMTP.Host)
	}

	msg := m.compose(to, subject, body)
	if err := m.send(m.cfg.SMTP.Addr(), auth, m.cfg.SMTP.From, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) compose(to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.SMTP.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
