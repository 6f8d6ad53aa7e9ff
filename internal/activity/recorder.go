// Package activity writes and reads the append-only audit log.
package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

const writeTimeout = 10 * time.Second

type Store interface {
	Create(ctx context.Context, a *models.Activity) error
	List(ctx context.Context, p store.ListParams, f store.ActivityFilter) (store.Page[models.Activity], error)
}

// Recorder writes activity entries in the background. Record never blocks on
// the database and never fails the caller; write errors are only logged.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func NewRecorder(s Store, logger *slog.Logger, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, logger: logger, now: now}
}

func (r *Recorder) Record(ctx context.Context, userID *uuid.UUID, kind models.ActivityKind, description string) {
	at := r.now().Unix()
	entry := &models.Activity{
		Base:        models.Base{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
		Kind:        kind,
		Description: description,
	}
	if userID != nil {
		id := *userID
		entry.UserID = &id
	}

	// The request may finish (and cancel ctx) before the write lands.
	bg := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(bg, writeTimeout)
		defer cancel()

		if err := r.store.Create(ctx, entry); err != nil {
			r.logger.Warn("failed to record activity",
				"kind", kind,
				"user_id", entry.UserID,
				"error", err,
			)
		}
	}()
}

// Wait blocks until every pending write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) List(ctx context.Context, p store.ListParams, f store.ActivityFilter) (store.Page[models.Activity], error) {
	return r.store.List(ctx, p, f)
}
