package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	apivalidation "github.com/hugh/go-crm/internal/api/validation"
	"github.com/hugh/go-crm/internal/crm"
)

type CreateClientRequest struct {
	Name              string `json:"name"`
	Industry          string `json:"industry"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	BankingDetails    string `json:"banking_details"`
	ResponsibleUserID string `json:"responsible_user_id"`
}

func (r CreateClientRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Industry, validation.Length(0, 100)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, apivalidation.Phone),
		validation.Field(&r.BankingDetails, validation.Length(0, 2000)),
		validation.Field(&r.ResponsibleUserID, apivalidation.UUID),
	))
}

func (r CreateClientRequest) Input() crm.ClientInput {
	return crm.ClientInput{
		Name:              r.Name,
		Industry:          strings.TrimSpace(r.Industry),
		Email:             r.Email,
		Phone:             r.Phone,
		BankingDetails:    r.BankingDetails,
		ResponsibleUserID: optionalID(r.ResponsibleUserID),
	}
}

type UpdateClientRequest struct {
	Name              *string `json:"name"`
	Industry          *string `json:"industry"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	BankingDetails    *string `json:"banking_details"`
	ResponsibleUserID *string `json:"responsible_user_id"`
}

func (r UpdateClientRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Industry, validation.Length(0, 100)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, apivalidation.Phone),
		validation.Field(&r.BankingDetails, validation.Length(0, 2000)),
		validation.Field(&r.ResponsibleUserID, validation.NilOrNotEmpty, apivalidation.UUID),
	))
}

func (r UpdateClientRequest) Patch() crm.ClientPatch {
	p := crm.ClientPatch{
		Name:           r.Name,
		Industry:       trimmed(r.Industry),
		Email:          trimmed(r.Email),
		Phone:          r.Phone,
		BankingDetails: r.BankingDetails,
	}
	if r.ResponsibleUserID != nil {
		p.ResponsibleUserID = optionalID(*r.ResponsibleUserID)
	}
	return p
}

type CreateContactRequest struct {
	ClientID          string `json:"client_id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Role              string `json:"role"`
	Title             string `json:"title"`
	ResponsibleUserID string `json:"responsible_user_id"`
}

func (r CreateContactRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.ClientID, validation.Required, apivalidation.UUID),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, apivalidation.Phone),
		validation.Field(&r.Role, validation.Length(0, 100)),
		validation.Field(&r.Title, validation.Length(0, 100)),
		validation.Field(&r.ResponsibleUserID, apivalidation.UUID),
	))
}

func (r CreateContactRequest) Input() crm.ContactInput {
	return crm.ContactInput{
		ClientID:          uuid.MustParse(r.ClientID),
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Role:              strings.TrimSpace(r.Role),
		Title:             strings.TrimSpace(r.Title),
		ResponsibleUserID: optionalID(r.ResponsibleUserID),
	}
}

type UpdateContactRequest struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	Role              *string `json:"role"`
	Title             *string `json:"title"`
	ResponsibleUserID *string `json:"responsible_user_id"`
}

func (r UpdateContactRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, apivalidation.Phone),
		validation.Field(&r.Role, validation.Length(0, 100)),
		validation.Field(&r.Title, validation.Length(0, 100)),
		validation.Field(&r.ResponsibleUserID, validation.NilOrNotEmpty, apivalidation.UUID),
	))
}

func (r UpdateContactRequest) Patch() crm.ContactPatch {
	p := crm.ContactPatch{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
		Role:  trimmed(r.Role),
		Title: trimmed(r.Title),
	}
	if r.ResponsibleUserID != nil {
		p.ResponsibleUserID = optionalID(*r.ResponsibleUserID)
	}
	return p
}

// CreateReportRequest carries the form fields of a multipart report upload.
type CreateReportRequest struct {
	ClientID  string `json:"client_id"`
	ContactID string `json:"contact_id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}

func (r CreateReportRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.ClientID, validation.Required, apivalidation.UUID),
		validation.Field(&r.ContactID, validation.Required, apivalidation.UUID),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Text, validation.Length(0, 50000)),
	))
}

func (r CreateReportRequest) Input() crm.ReportInput {
	return crm.ReportInput{
		ClientID:  uuid.MustParse(r.ClientID),
		ContactID: uuid.MustParse(r.ContactID),
		Title:     r.Title,
		Text:      apivalidation.SanitizeString(r.Text),
	}
}

type UpdateReportRequest struct {
	Title *string `json:"title"`
	Text  *string `json:"text"`
}

func (r UpdateReportRequest) Validate() map[string]string {
	return apivalidation.Details(validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Text, validation.Length(0, 50000)),
	))
}

func (r UpdateReportRequest) Patch() crm.ReportPatch {
	p := crm.ReportPatch{Title: r.Title}
	if r.Text != nil {
		text := apivalidation.SanitizeString(*r.Text)
		p.Text = &text
	}
	return p
}

// optionalID parses an id that Validate already accepted; empty means unset.
func optionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
