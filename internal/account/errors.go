package account

import "github.com/hugh/go-crm/internal/apperr"

var (
	ErrAlreadyInitialized = apperr.New(apperr.AlreadyInitialized, "setup has already been completed")
	ErrDuplicateUser      = apperr.New(apperr.DuplicateUser, "an account with this email already exists")
	ErrDuplicateInvite    = apperr.New(apperr.DuplicateInvite, "an invite was already sent to this email, resend it instead")
	ErrInviteNotFound     = apperr.New(apperr.NotFound, "invite not found")
	ErrUserNotFound       = apperr.New(apperr.NotFound, "user not found")
	ErrAlreadyAccepted    = apperr.New(apperr.AlreadyAccepted, "invite has already been accepted")
	ErrInviteExpired      = apperr.New(apperr.Expired, "invite has expired")
	ErrDeactivated        = apperr.New(apperr.Deactivated, "account has been deactivated")
	ErrInvalidCredentials = apperr.New(apperr.InvalidCredentials, "invalid email or password")
	ErrInvalidOTP         = apperr.New(apperr.InvalidOrExpiredOtp, "invalid or expired code")
	ErrInvalidToken       = apperr.New(apperr.InvalidToken, "invalid or expired reset token")
	ErrUnauthorized       = apperr.New(apperr.Unauthorized, "authentication required")
	ErrRateLimited        = apperr.New(apperr.RateLimited, "too many reset requests, try again later")
	ErrInvalidRole        = apperr.New(apperr.Validation, "invalid role")
	ErrNothingToUpdate    = apperr.New(apperr.Validation, "no fields to update")
	ErrSelfDeactivation   = apperr.New(apperr.Conflict, "you cannot deactivate your own account")
	ErrProtectedUser      = apperr.New(apperr.Conflict, "the super admin account cannot be changed")
	ErrUserDeactivated    = apperr.New(apperr.Conflict, "user is deactivated")
)
