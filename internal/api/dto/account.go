package dto

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/hugh/go-crm/internal/account"
	apivalidation "github.com/hugh/go-crm/internal/api/validation"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

// DateLayout is the wire format of dates of birth.
const DateLayout = "2006-01-02"

var genders = []interface{}{models.GenderMale, models.GenderFemale}

func emailRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(3, 254), is.Email}
}

type SetupRequest struct {
	Email string `json:"email"`
}

func (r SetupRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
	))
}

type SendInviteRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func (r SendInviteRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Role, validation.Required, validation.In(models.RoleAdmin, models.RoleUser)),
	))
}

type AcceptInviteRequest struct {
	FirstName   string        `json:"first_name"`
	MiddleName  string        `json:"middle_name"`
	LastName    string        `json:"last_name"`
	Gender      models.Gender `json:"gender"`
	DateOfBirth string        `json:"date_of_birth"`
	Phone       string        `json:"phone"`
	Location    string        `json:"location"`
	Password    string        `json:"password"`
}

func (r AcceptInviteRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.MiddleName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Gender, validation.In(genders...)),
		validation.Field(&r.DateOfBirth, validation.Date(DateLayout)),
		validation.Field(&r.Phone, apivalidation.Phone),
		validation.Field(&r.Location, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Required, apivalidation.Password),
	))
}

// Input converts the request. It fails only on values Validate rejects.
func (r AcceptInviteRequest) Input() (account.AcceptInput, error) {
	dob, err := parseDate(r.DateOfBirth)
	if err != nil {
		return account.AcceptInput{}, err
	}
	return account.AcceptInput{
		FirstName:   strings.TrimSpace(r.FirstName),
		MiddleName:  strings.TrimSpace(r.MiddleName),
		LastName:    strings.TrimSpace(r.LastName),
		Gender:      r.Gender,
		DateOfBirth: dob,
		Phone:       r.Phone,
		Location:    r.Location,
		Password:    r.Password,
	}, nil
}

// DateError reports a date_of_birth that is not in DateLayout.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("date_of_birth %q is not a %s date", e.Value, DateLayout)
}

// Details renders the error the way failed validation is reported.
func (e *DateError) Details() map[string]string {
	return map[string]string{"date_of_birth": "Must be a valid date"}
}

// parseDate returns nil for an empty value.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, &DateError{Value: s}
	}
	return &t, nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	))
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
	))
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r VerifyOTPRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Code, validation.Required, validation.Length(4, 10), is.Digit),
	))
}

type VerifyOTPResponse struct {
	Token string `json:"token"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r ResetPasswordRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, apivalidation.Password),
	))
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r UpdatePasswordRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, apivalidation.Password),
	))
}

// UpdateInfoRequest changes profile fields; absent fields are left alone.
type UpdateInfoRequest struct {
	FirstName   *string        `json:"first_name"`
	MiddleName  *string        `json:"middle_name"`
	LastName    *string        `json:"last_name"`
	Gender      *models.Gender `json:"gender"`
	DateOfBirth *string        `json:"date_of_birth"`
	Phone       *string        `json:"phone"`
	Location    *string        `json:"location"`
}

func (r UpdateInfoRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.MiddleName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Gender, validation.In(genders...)),
		validation.Field(&r.DateOfBirth, validation.Date(DateLayout)),
		validation.Field(&r.Phone, apivalidation.Phone),
		validation.Field(&r.Location, validation.Length(0, 200)),
	))
}

// Update converts the request. It fails only on values Validate rejects.
func (r UpdateInfoRequest) Update() (store.UserInfoUpdate, error) {
	u := store.UserInfoUpdate{
		FirstName:  trimmed(r.FirstName),
		MiddleName: trimmed(r.MiddleName),
		LastName:   trimmed(r.LastName),
		Gender:     r.Gender,
		Phone:      r.Phone,
		Location:   r.Location,
	}
	if r.DateOfBirth != nil {
		dob, err := parseDate(*r.DateOfBirth)
		if err != nil {
			return store.UserInfoUpdate{}, err
		}
		u.DateOfBirth = dob
	}
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
