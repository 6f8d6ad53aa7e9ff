package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
)

type ReportInput struct {
	ClientID  uuid.UUID
	ContactID uuid.UUID
	Title     string
	Text      string
}

type ReportPatch struct {
	Title *string
	Text  *string
}

type Reports struct {
	d Deps
}

func NewReports(d Deps) *Reports {
	return &Reports{d: d.withDefaults()}
}

// Create stores the uploads and then writes the report with its file rows in
// one transaction. When that write fails the uploaded objects are removed.
func (s *Reports) Create(ctx context.Context, actor *models.User, in ReportInput, uploads []storage.Upload) (*models.Report, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	client, err := s.d.Clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "getting client")
	}
	contact, err := s.d.Contacts.GetByID(ctx, in.ContactID)
	if err != nil {
		return nil, notFound(err, ErrContactNotFound, "getting contact")
	}
	if contact.ClientID != client.ID {
		return nil, ErrContactMismatch
	}

	now := s.d.Now()
	at := now.Unix()

	files, keys, err := s.put(ctx, now, uploads)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		UserID:    actor.ID,
		ClientID:  client.ID,
		ContactID: contact.ID,
		Title:     strings.TrimSpace(in.Title),
		Text:      in.Text,
	}
	report.ID = uuid.New()
	models.Stamp(&report.Base, &report.Audit, &actor.ID, at)
	for i := range files {
		models.Stamp(&files[i].Base, nil, nil, at)
	}

	if err := s.d.Reports.Create(ctx, report, files); err != nil {
		storage.DeleteAll(ctx, s.d.Storage, s.d.Logger, keys...)
		return nil, fmt.Errorf("creating report: %w", err)
	}

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityReport,
		fmt.Sprintf("Created report %s for client %s", report.Title, client.Name))
	return report, nil
}

// put uploads every file. Keys are spaced a millisecond apart so files with
// the same name in one request do not collide. On failure the objects already
// stored are removed.
func (s *Reports) put(ctx context.Context, now time.Time, uploads []storage.Upload) ([]models.ReportFile, []string, error) {
	files := make([]models.ReportFile, 0, len(uploads))
	keys := make([]string, 0, len(uploads))

	for i, up := range uploads {
		key := storage.ObjectKey(now.Add(time.Duration(i)*time.Millisecond), up.Name)
		location, err := s.d.Storage.Put(ctx, key, up.ContentType, up.Body, up.Size)
		if err != nil {
			storage.DeleteAll(ctx, s.d.Storage, s.d.Logger, keys...)
			return nil, nil, fmt.Errorf("storing %s: %w", up.Name, err)
		}
		keys = append(keys, key)
		files = append(files, models.ReportFile{
			OriginalName: up.Name,
			Key:          key,
			Location:     location,
			ContentType:  up.ContentType,
			Size:         up.Size,
		})
		files[i].ID = uuid.New()
	}
	return files, keys, nil
}

func (s *Reports) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.d.Reports.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "getting report")
	}
	return report, nil
}

func (s *Reports) List(ctx context.Context, p store.ListParams, f store.ReportFilter) (store.Page[models.Report], error) {
	return s.d.Reports.List(ctx, p, f)
}

func (s *Reports) Update(ctx context.Context, actor *models.User, id uuid.UUID, p ReportPatch) (*models.Report, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if p.Title == nil && p.Text == nil {
		return nil, ErrNothingToUpdate
	}

	u := store.ReportUpdate{Text: p.Text}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		u.Title = &title
	}

	if err := s.d.Reports.Update(ctx, id, u, actor.ID, s.d.Now().Unix()); err != nil {
		return nil, notFound(err, ErrReportNotFound, "updating report")
	}

	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.d.Activity.Record(ctx, &actor.ID, models.ActivityReport, fmt.Sprintf("Updated report %s", report.Title))
	return report, nil
}

// AddFile attaches one more upload to an existing report.
func (s *Reports) AddFile(ctx context.Context, actor *models.User, reportID uuid.UUID, up storage.Upload) (*models.ReportFile, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	report, err := s.d.Reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "getting report")
	}

	now := s.d.Now()
	files, keys, err := s.put(ctx, now, []storage.Upload{up})
	if err != nil {
		return nil, err
	}
	file := &files[0]
	file.ReportID = report.ID
	models.Stamp(&file.Base, nil, nil, now.Unix())

	if err := s.d.Reports.AddFile(ctx, file); err != nil {
		storage.DeleteAll(ctx, s.d.Storage, s.d.Logger, keys...)
		return nil, fmt.Errorf("adding report file: %w", err)
	}

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityReport,
		fmt.Sprintf("Added file %s to report %s", file.OriginalName, report.Title))
	return file, nil
}

// DeleteFile removes the file row, then its object. A failed object delete
// is logged and leaves an orphan behind.
func (s *Reports) DeleteFile(ctx context.Context, actor *models.User, reportID, fileID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	file, err := s.d.Reports.GetFile(ctx, reportID, fileID)
	if err != nil {
		return notFound(err, ErrFileNotFound, "getting report file")
	}
	if err := s.d.Reports.DeleteFile(ctx, reportID, fileID); err != nil {
		return notFound(err, ErrFileNotFound, "deleting report file")
	}
	storage.DeleteAll(ctx, s.d.Storage, s.d.Logger, file.Key)

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityReport, fmt.Sprintf("Removed file %s", file.OriginalName))
	return nil
}

// Delete removes the report, its file rows and their objects.
func (s *Reports) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	report, err := s.d.Reports.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrReportNotFound, "getting report")
	}
	if err := s.d.Reports.Delete(ctx, id); err != nil {
		return notFound(err, ErrReportNotFound, "deleting report")
	}

	keys := make([]string, 0, len(report.Files))
	for _, f := range report.Files {
		keys = append(keys, f.Key)
	}
	storage.DeleteAll(ctx, s.d.Storage, s.d.Logger, keys...)

	s.d.Activity.Record(ctx, &actor.ID, models.ActivityReport, fmt.Sprintf("Deleted report %s", report.Title))
	return nil
}
