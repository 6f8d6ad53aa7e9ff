package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

type ContactInput struct {
	ClientID          uuid.UUID
	Name              string
	Email             string
	Phone             string
	Role              string
	Title             string
	ResponsibleUserID *uuid.UUID
}

type ContactPatch struct {
	Name              *string
	Email             *string
	Phone             *string
	Role              *string
	Title             *string
	ResponsibleUserID *uuid.UUID
}

func (p ContactPatch) empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Role == nil &&
		p.Title == nil && p.ResponsibleUserID == nil
}

type Contacts struct {
	d Deps
}

func NewContacts(d Deps) *Contacts {
	return &Contacts{d: d.withDefaults()}
}

func (s *Contacts) Create(ctx context.Context, actor *models.User, in ContactInput) (*models.Contact, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	client, err := s.d.Clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "getting client")
	}

	owner, err := responsible(ctx, s.d.Users, actor, in.ResponsibleUserID)
	if err != nil {
		return nil, err
	}

	contact := &models.Contact{
		ClientID:          client.ID,
		Name:              strings.TrimSpace(in.Name),
		Email:             strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:             in.Phone,
		Role:              in.Role,
		Title:             in.Title,
		ResponsibleUserID: owner,
	}
	contact.ID = uuid.New()
	models.Stamp(&contact.Base, &contact.Audit, &actor.ID, s.d.Now().Unix())

	if err := s.d.Contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityContact,
		fmt.Sprintf("Created contact %s for client %s", contact.Name, client.Name))
	return contact, nil
}

func (s *Contacts) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	contact, err := s.d.Contacts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrContactNotFound, "getting contact")
	}
	return contact, nil
}

func (s *Contacts) List(ctx context.Context, p store.ListParams, f store.ContactFilter) (store.Page[models.Contact], error) {
	return s.d.Contacts.List(ctx, p, f)
}

func (s *Contacts) Update(ctx context.Context, actor *models.User, id uuid.UUID, p ContactPatch) (*models.Contact, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if p.empty() {
		return nil, ErrNothingToUpdate
	}

	u := store.ContactUpdate{
		Phone: p.Phone,
		Role:  p.Role,
		Title: p.Title,
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		u.Name = &name
	}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		u.Email = &email
	}
	if p.ResponsibleUserID != nil {
		owner, err := responsible(ctx, s.d.Users, actor, p.ResponsibleUserID)
		if err != nil {
			return nil, err
		}
		u.ResponsibleUserID = &owner
	}

	if err := s.d.Contacts.Update(ctx, id, u, actor.ID, s.d.Now().Unix()); err != nil {
		return nil, notFound(err, ErrContactNotFound, "updating contact")
	}

	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.d.Activity.Record(ctx, &actor.ID, models.ActivityContact, fmt.Sprintf("Updated contact %s", contact.Name))
	return contact, nil
}

// Delete removes a contact no report refers to.
func (s *Contacts) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	contact, err := s.d.Contacts.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrContactNotFound, "getting contact")
	}

	n, err := s.d.Contacts.CountReports(ctx, id)
	if err != nil {
		return fmt.Errorf("counting contact reports: %w", err)
	}
	if n > 0 {
		return ErrContactInUse
	}

	if err := s.d.Contacts.Delete(ctx, id); err != nil {
		return notFound(err, ErrContactNotFound, "deleting contact")
	}

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityContact, fmt.Sprintf("Deleted contact %s", contact.Name))
	return nil
}
