// Package account runs the invite, login and password-reset flows on top of
// the user, invite and OTP stores.
package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/auth"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/notify"
	"github.com/hugh/go-crm/internal/store"
	"github.com/hugh/go-crm/pkg/util"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByRole(ctx context.Context, role models.Role) (bool, error)
	UpdateSession(ctx context.Context, id uuid.UUID, sessionID string, at int64) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash, sessionID string, at int64) error
	UpdatePasswordByEmail(ctx context.Context, email, hash string, at int64) error
	UpdateStatus(ctx context.Context, id uuid.UUID, u store.StatusUpdate) error
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role, by uuid.UUID, at int64) error
	UpdateInfo(ctx context.Context, id uuid.UUID, u store.UserInfoUpdate, at int64) error
	List(ctx context.Context, p store.ListParams, f store.UserFilter) (store.Page[models.User], error)
}

type InviteStore interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	GetPendingByEmail(ctx context.Context, email string) (*models.Invite, error)
	GetPendingByRole(ctx context.Context, role models.Role) (*models.Invite, error)
	Reissue(ctx context.Context, id uuid.UUID, email string, expiresAt, at int64) error
	RefreshExpiry(ctx context.Context, id uuid.UUID, expiresAt int64, by *uuid.UUID, at int64) error
	Accept(ctx context.Context, inviteID uuid.UUID, user *models.User, at int64) error
	List(ctx context.Context, p store.ListParams) (store.Page[models.Invite], error)
}

type OTPStore interface {
	Save(ctx context.Context, otp *models.OTP) error
	Get(ctx context.Context, email string) (*models.OTP, error)
	IncrementWrongTrials(ctx context.Context, email string, at int64) error
	MarkUsed(ctx context.Context, email, code string, at int64) (bool, error)
}

// Recorder is the best-effort activity log.
type Recorder interface {
	Record(ctx context.Context, userID *uuid.UUID, kind models.ActivityKind, description string)
}

// Throttle limits how often a key may trigger an action.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Deps are the collaborators of the account service. Throttle may be nil.
type Deps struct {
	Users    UserStore
	Invites  InviteStore
	OTPs     OTPStore
	Tokens   auth.TokenService
	Notifier notify.Notifier
	Activity Recorder
	Throttle Throttle
	Logger   *slog.Logger
}

// Options tune the flows. Zero values fall back to the defaults.
type Options struct {
	Now            func() time.Time
	NewSessionID   func() string
	NewOTP         func() (string, error)
	InviteTTL      time.Duration
	OTPTTL         time.Duration
	OTPLength      int
	OTPMaxAttempts int
	AppName        string
}

const (
	DefaultInviteTTL      = 24 * time.Hour
	DefaultOTPTTL         = 10 * time.Minute
	DefaultOTPLength      = 6
	DefaultOTPMaxAttempts = 5
)

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewSessionID == nil {
		o.NewSessionID = uuid.NewString
	}
	if o.OTPLength <= 0 {
		o.OTPLength = DefaultOTPLength
	}
	if o.NewOTP == nil {
		n := o.OTPLength
		o.NewOTP = func() (string, error) { return util.RandomDigits(n) }
	}
	if o.InviteTTL <= 0 {
		o.InviteTTL = DefaultInviteTTL
	}
	if o.OTPTTL <= 0 {
		o.OTPTTL = DefaultOTPTTL
	}
	if o.OTPMaxAttempts <= 0 {
		o.OTPMaxAttempts = DefaultOTPMaxAttempts
	}
	if o.AppName == "" {
		o.AppName = "Go CRM"
	}
	return o
}

// Service holds no state of its own; every call reads and writes the stores.
type Service struct {
	users    UserStore
	invites  InviteStore
	otps     OTPStore
	tokens   auth.TokenService
	notifier notify.Notifier
	activity Recorder
	throttle Throttle
	logger   *slog.Logger
	opts     Options
}

func NewService(deps Deps, opts Options) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    deps.Users,
		invites:  deps.Invites,
		otps:     deps.OTPs,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		activity: deps.Activity,
		throttle: deps.Throttle,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

func (s *Service) now() int64 {
	return s.opts.Now().Unix()
}
