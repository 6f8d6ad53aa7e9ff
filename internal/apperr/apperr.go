// Package apperr defines the caller-facing error kinds shared by the services.
// Transport code maps a Kind to a status code; everything that is not an
// *Error is treated as an internal failure.
package apperr

import "errors"

type Kind string

const (
	AlreadyInitialized  Kind = "already_initialized"
	DuplicateUser       Kind = "duplicate_user"
	DuplicateInvite     Kind = "duplicate_invite"
	NotFound            Kind = "not_found"
	AlreadyAccepted     Kind = "already_accepted"
	Expired             Kind = "expired"
	Deactivated         Kind = "deactivated"
	InvalidCredentials  Kind = "invalid_credentials"
	InvalidOrExpiredOtp Kind = "invalid_or_expired_otp"
	InvalidToken        Kind = "invalid_token"
	Unauthorized        Kind = "unauthorized"
	Forbidden           Kind = "forbidden"
	Conflict            Kind = "conflict"
	Validation          Kind = "validation"
	RateLimited         Kind = "rate_limited"
)

type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can test
// errors.Is(err, apperr.New(apperr.NotFound, "")) or against a package sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
