package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/store"
)

type ContactHandler struct {
	contacts *crm.Contacts
	logger   *slog.Logger
}

func NewContactHandler(contacts *crm.Contacts, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger}
}

// List handles GET /api/v1/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, ok := queryID(w, r, "client_id")
	if !ok {
		return
	}
	responsible, ok := queryID(w, r, "responsible_user_id")
	if !ok {
		return
	}

	page, err := h.contacts.List(r.Context(), dto.ListParams(r.URL.Query()), store.ContactFilter{
		ClientID:          clientID,
		ResponsibleUserID: responsible,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to list contacts")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Create handles POST /api/v1/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateContactRequest
	if !decode(w, r, &req) {
		return
	}

	contact, err := h.contacts.Create(r.Context(), middleware.GetUser(r.Context()), req.Input())
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create contact")
		return
	}

	writeJSON(w, http.StatusCreated, contact)
}

// Get handles GET /api/v1/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	contact, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get contact")
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

// Update handles PUT /api/v1/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateContactRequest
	if !decode(w, r, &req) {
		return
	}

	contact, err := h.contacts.Update(r.Context(), middleware.GetUser(r.Context()), id, req.Patch())
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update contact")
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

// Delete handles DELETE /api/v1/contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.contacts.Delete(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err, "Failed to delete contact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
