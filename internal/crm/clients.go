package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
)

type ClientInput struct {
	Name              string
	Industry          string
	Email             string
	Phone             string
	BankingDetails    string
	ResponsibleUserID *uuid.UUID
}

// ClientPatch changes the given fields; nil fields keep their value.
type ClientPatch struct {
	Name              *string
	Industry          *string
	Email             *string
	Phone             *string
	BankingDetails    *string
	ResponsibleUserID *uuid.UUID
}

func (p ClientPatch) empty() bool {
	return p.Name == nil && p.Industry == nil && p.Email == nil && p.Phone == nil &&
		p.BankingDetails == nil && p.ResponsibleUserID == nil
}

type Clients struct {
	d Deps
}

func NewClients(d Deps) *Clients {
	return &Clients{d: d.withDefaults()}
}

func (s *Clients) Create(ctx context.Context, actor *models.User, in ClientInput) (*models.Client, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)

	if err := s.ensureNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	owner, err := responsible(ctx, s.d.Users, actor, in.ResponsibleUserID)
	if err != nil {
		return nil, err
	}

	sealed, err := s.d.Sealer.SealString(in.BankingDetails)
	if err != nil {
		return nil, fmt.Errorf("encrypting banking details: %w", err)
	}

	client := &models.Client{
		Name:                 name,
		Industry:             in.Industry,
		Email:                strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:                in.Phone,
		ResponsibleUserID:    owner,
		SealedBankingDetails: sealed,
	}
	client.ID = uuid.New()
	models.Stamp(&client.Base, &client.Audit, &actor.ID, s.d.Now().Unix())

	if err := s.d.Clients.Create(ctx, client); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateClient
		}
		return nil, fmt.Errorf("creating client: %w", err)
	}
	client.BankingDetails = in.BankingDetails

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityClient, fmt.Sprintf("Created client %s", client.Name))
	return client, nil
}

func (s *Clients) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.d.Clients.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != self:
		return ErrDuplicateClient
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("checking client name: %w", err)
	}
	return nil
}

// Get returns the client with its banking details decrypted.
func (s *Clients) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.d.Clients.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "getting client")
	}
	if err := s.open(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Clients) List(ctx context.Context, p store.ListParams, f store.ClientFilter) (store.Page[models.Client], error) {
	page, err := s.d.Clients.List(ctx, p, f)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		if err := s.open(&page.Items[i]); err != nil {
			return store.Page[models.Client]{}, err
		}
	}
	return page, nil
}

func (s *Clients) open(c *models.Client) error {
	plain, err := s.d.Sealer.OpenString(c.SealedBankingDetails)
	if err != nil {
		return fmt.Errorf("decrypting banking details of client %s: %w", c.ID, err)
	}
	c.BankingDetails = plain
	return nil
}

func (s *Clients) Update(ctx context.Context, actor *models.User, id uuid.UUID, p ClientPatch) (*models.Client, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if p.empty() {
		return nil, ErrNothingToUpdate
	}

	current, err := s.d.Clients.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "getting client")
	}

	u := store.ClientUpdate{
		Industry: p.Industry,
		Email:    p.Email,
		Phone:    p.Phone,
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name != current.Name {
			if err := s.ensureNameFree(ctx, name, current.ID); err != nil {
				return nil, err
			}
		}
		u.Name = &name
	}
	if p.ResponsibleUserID != nil {
		owner, err := responsible(ctx, s.d.Users, actor, p.ResponsibleUserID)
		if err != nil {
			return nil, err
		}
		u.ResponsibleUserID = &owner
	}
	if p.BankingDetails != nil {
		sealed, err := s.d.Sealer.SealString(*p.BankingDetails)
		if err != nil {
			return nil, fmt.Errorf("encrypting banking details: %w", err)
		}
		u.SealedBankingDetails = &sealed
	}

	if err := s.d.Clients.Update(ctx, id, u, actor.ID, s.d.Now().Unix()); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateClient
		}
		return nil, notFound(err, ErrClientNotFound, "updating client")
	}

	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.d.Activity.Record(ctx, &actor.ID, models.ActivityClient, fmt.Sprintf("Updated client %s", client.Name))
	return client, nil
}

// UpdateLogo points the client at an already stored logo.
func (s *Clients) UpdateLogo(ctx context.Context, actor *models.User, id uuid.UUID, location string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if err := s.d.Clients.UpdateLogo(ctx, id, location, actor.ID, s.d.Now().Unix()); err != nil {
		return notFound(err, ErrClientNotFound, "updating logo")
	}
	return nil
}

// UploadLogo stores the image and sets it as the client's logo. The object is
// removed again if the client cannot be updated.
func (s *Clients) UploadLogo(ctx context.Context, actor *models.User, id uuid.UUID, up storage.Upload) (*models.Client, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if _, err := s.d.Clients.GetByID(ctx, id); err != nil {
		return nil, notFound(err, ErrClientNotFound, "getting client")
	}

	key := storage.ObjectKey(s.d.Now(), up.Name)
	location, err := s.d.Storage.Put(ctx, key, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, fmt.Errorf("storing logo: %w", err)
	}

	if err := s.UpdateLogo(ctx, actor, id, location); err != nil {
		storage.DeleteAll(ctx, s.d.Storage, s.d.Logger, key)
		return nil, err
	}

	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.d.Activity.Record(ctx, &actor.ID, models.ActivityClient, fmt.Sprintf("Updated logo of client %s", client.Name))
	return client, nil
}

// Delete removes a client that no contact or report refers to.
func (s *Clients) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	client, err := s.d.Clients.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrClientNotFound, "getting client")
	}

	contacts, reports, err := s.d.Clients.CountDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("counting client dependents: %w", err)
	}
	if contacts > 0 || reports > 0 {
		return ErrClientInUse
	}

	if err := s.d.Clients.Delete(ctx, id); err != nil {
		return notFound(err, ErrClientNotFound, "deleting client")
	}

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityClient, fmt.Sprintf("Deleted client %s", client.Name))
	return nil
}
