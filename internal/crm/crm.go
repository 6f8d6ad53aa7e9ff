// Package crm manages clients, their contacts and the reports written about
// them. Every write is recorded in the activity log.
package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/apperr"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
)

var (
	ErrClientNotFound      = apperr.New(apperr.NotFound, "client not found")
	ErrContactNotFound     = apperr.New(apperr.NotFound, "contact not found")
	ErrReportNotFound      = apperr.New(apperr.NotFound, "report not found")
	ErrFileNotFound        = apperr.New(apperr.NotFound, "file not found")
	ErrResponsibleNotFound = apperr.New(apperr.NotFound, "responsible user not found")
	ErrDuplicateClient     = apperr.New(apperr.Conflict, "a client with this name already exists")
	ErrClientInUse         = apperr.New(apperr.Conflict, "client still has contacts or reports")
	ErrContactInUse        = apperr.New(apperr.Conflict, "contact still has reports")
	ErrContactMismatch     = apperr.New(apperr.Conflict, "contact does not belong to the client")
	ErrUnauthorized        = apperr.New(apperr.Unauthorized, "authentication required")
	ErrNothingToUpdate     = apperr.New(apperr.Validation, "no fields to update")
)

type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetByName(ctx context.Context, name string) (*models.Client, error)
	Update(ctx context.Context, id uuid.UUID, u store.ClientUpdate, by uuid.UUID, at int64) error
	UpdateLogo(ctx context.Context, id uuid.UUID, location string, by uuid.UUID, at int64) error
	CountDependents(ctx context.Context, id uuid.UUID) (contacts, reports int64, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, p store.ListParams, f store.ClientFilter) (store.Page[models.Client], error)
}

type ContactStore interface {
	Create(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	Update(ctx context.Context, id uuid.UUID, u store.ContactUpdate, by uuid.UUID, at int64) error
	CountReports(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, p store.ListParams, f store.ContactFilter) (store.Page[models.Contact], error)
}

type ReportStore interface {
	Create(ctx context.Context, r *models.Report, files []models.ReportFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	Update(ctx context.Context, id uuid.UUID, u store.ReportUpdate, by uuid.UUID, at int64) error
	AddFile(ctx context.Context, f *models.ReportFile) error
	GetFile(ctx context.Context, reportID, fileID uuid.UUID) (*models.ReportFile, error)
	DeleteFile(ctx context.Context, reportID, fileID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, p store.ListParams, f store.ReportFilter) (store.Page[models.Report], error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Sealer encrypts sensitive text columns; pkg/crypto.Encryptor implements it.
type Sealer interface {
	SealString(plaintext string) (string, error)
	OpenString(sealed string) (string, error)
}

type Recorder interface {
	Record(ctx context.Context, userID *uuid.UUID, kind models.ActivityKind, description string)
}

// Deps are shared by the three services. Each uses the stores it needs.
type Deps struct {
	Clients  ClientStore
	Contacts ContactStore
	Reports  ReportStore
	Users    UserLookup
	Sealer   Sealer
	Storage  storage.Storage
	Activity Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// responsible resolves the responsible user: the requested one if it exists,
// otherwise the actor.
func responsible(ctx context.Context, users UserLookup, actor *models.User, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == actor.ID {
		return actor.ID, nil
	}
	if _, err := users.GetByID(ctx, *requested); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, ErrResponsibleNotFound
		}
		return uuid.Nil, fmt.Errorf("looking up responsible user: %w", err)
	}
	return *requested, nil
}

// notFound maps store.ErrNotFound to sentinel and wraps anything else.
func notFound(err error, sentinel error, action string) error {
	if errors.Is(err, store.ErrNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", action, err)
}
