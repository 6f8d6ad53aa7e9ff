package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

type ActivityLister interface {
	List(ctx context.Context, p store.ListParams, f store.ActivityFilter) (store.Page[models.Activity], error)
}

type ActivityHandler struct {
	activities ActivityLister
	logger     *slog.Logger
}

func NewActivityHandler(activities ActivityLister, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

// List handles GET /api/v1/activities. Admins see everyone's entries and may
// filter by user; other users only see their own.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	filter := store.ActivityFilter{Kind: models.ActivityKind(r.URL.Query().Get("kind"))}
	if filter.Kind != "" && !filter.Kind.Valid() {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid kind"})
		return
	}

	if actor.IsAdmin() {
		var ok bool
		if filter.UserID, ok = queryID(w, r, "user_id"); !ok {
			return
		}
	} else {
		filter.UserID = &actor.ID
	}

	page, err := h.activities.List(r.Context(), dto.ListParams(r.URL.Query()), filter)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to list activities")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
