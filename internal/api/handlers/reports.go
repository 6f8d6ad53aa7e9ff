package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
)

const (
	// maxReportFiles caps the attachments of one upload request.
	maxReportFiles = 10
	// multipartMemory is how much of a form is buffered before spilling to disk.
	multipartMemory = 8 << 20
	// formOverhead allows for boundaries and text fields around the files.
	formOverhead = 1 << 20
)

type ReportHandler struct {
	reports        *crm.Reports
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewReportHandler(reports *crm.Reports, maxUploadBytes int64, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, maxUploadBytes: maxUploadBytes, logger: logger}
}

// List handles GET /api/v1/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.ReportFilter
	var ok bool
	if filter.ClientID, ok = queryID(w, r, "client_id"); !ok {
		return
	}
	if filter.ContactID, ok = queryID(w, r, "contact_id"); !ok {
		return
	}
	if filter.UserID, ok = queryID(w, r, "user_id"); !ok {
		return
	}

	page, err := h.reports.List(r.Context(), dto.ListParams(r.URL.Query()), filter)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// parseForm reads a multipart body of up to maxFiles uploads.
func (h *ReportHandler) parseForm(w http.ResponseWriter, r *http.Request, maxFiles int) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart form"})
		return false
	}
	return true
}

// openUploads validates and opens every file. The returned closer must be
// called once the uploads have been stored.
func (h *ReportHandler) openUploads(headers []*multipart.FileHeader) ([]storage.Upload, func(), error) {
	uploads := make([]storage.Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, fh := range headers {
		upload, file, err := storage.OpenUpload(fh, h.maxUploadBytes)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		uploads = append(uploads, upload)
		files = append(files, file)
	}
	return uploads, closeAll, nil
}

// Create handles POST /api/v1/reports as multipart: client_id, contact_id,
// title and text fields plus any number of "files".
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r, maxReportFiles) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := dto.CreateReportRequest{
		ClientID:  r.FormValue("client_id"),
		ContactID: r.FormValue("contact_id"),
		Title:     r.FormValue("title"),
		Text:      r.FormValue("text"),
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) > maxReportFiles {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"files": "Too many files"},
		})
		return
	}

	uploads, closeAll, err := h.openUploads(headers)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to read files")
		return
	}
	defer closeAll()

	report, err := h.reports.Create(r.Context(), middleware.GetUser(r.Context()), req.Input(), uploads)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create report")
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Update handles PUT /api/v1/reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateReportRequest
	if !decode(w, r, &req) {
		return
	}

	report, err := h.reports.Update(r.Context(), middleware.GetUser(r.Context()), id, req.Patch())
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/v1/reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.reports.Delete(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err, "Failed to delete report")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddFile handles POST /api/v1/reports/{id}/files with one "file".
func (h *ReportHandler) AddFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if !h.parseForm(w, r, 1) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) != 1 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"file": "Exactly one file is required"},
		})
		return
	}

	uploads, closeAll, err := h.openUploads(headers)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to read file")
		return
	}
	defer closeAll()

	file, err := h.reports.AddFile(r.Context(), middleware.GetUser(r.Context()), id, uploads[0])
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to add file")
		return
	}

	writeJSON(w, http.StatusCreated, file)
}

// DeleteFile handles DELETE /api/v1/reports/{id}/files/{fileID}
func (h *ReportHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "fileID")
	if !ok {
		return
	}

	if err := h.reports.DeleteFile(r.Context(), middleware.GetUser(r.Context()), id, fileID); err != nil {
		writeError(w, r, h.logger, err, "Failed to delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
