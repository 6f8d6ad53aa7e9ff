package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
)

type ClientHandler struct {
	clients        *crm.Clients
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewClientHandler(clients *crm.Clients, maxUploadBytes int64, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, maxUploadBytes: maxUploadBytes, logger: logger}
}

// List handles GET /api/v1/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	responsible, ok := queryID(w, r, "responsible_user_id")
	if !ok {
		return
	}

	page, err := h.clients.List(r.Context(), dto.ListParams(r.URL.Query()), store.ClientFilter{ResponsibleUserID: responsible})
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to list clients")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Create handles POST /api/v1/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if !decode(w, r, &req) {
		return
	}

	client, err := h.clients.Create(r.Context(), middleware.GetUser(r.Context()), req.Input())
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create client")
		return
	}

	writeJSON(w, http.StatusCreated, client)
}

// Get handles GET /api/v1/clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	client, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get client")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// Update handles PUT /api/v1/clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if !decode(w, r, &req) {
		return
	}

	client, err := h.clients.Update(r.Context(), middleware.GetUser(r.Context()), id, req.Patch())
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update client")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// Delete handles DELETE /api/v1/clients/{id}
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.clients.Delete(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err, "Failed to delete client")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadLogo handles PUT /api/v1/clients/{id}/logo with an image in the
// multipart field "logo".
func (h *ClientHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["logo"]
	if len(headers) != 1 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"logo": "Exactly one logo file is required"},
		})
		return
	}

	upload, file, err := storage.OpenUpload(headers[0], h.maxUploadBytes)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to read logo")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(upload.ContentType, "image/") {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"logo": "Logo must be an image"},
		})
		return
	}

	client, err := h.clients.UploadLogo(r.Context(), middleware.GetUser(r.Context()), id, upload)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to upload logo")
		return
	}

	writeJSON(w, http.StatusOK, client)
}
