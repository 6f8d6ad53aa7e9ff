package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/apperr"
)

// maxJSONBody caps request bodies that are not uploads.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error kind to its HTTP status. Errors without a kind are
// internal failures.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.DuplicateUser, apperr.DuplicateInvite, apperr.AlreadyAccepted,
		apperr.AlreadyInitialized, apperr.Conflict:
		return http.StatusConflict
	case apperr.Expired:
		return http.StatusGone
	case apperr.Deactivated, apperr.Forbidden:
		return http.StatusForbidden
	case apperr.InvalidCredentials, apperr.Unauthorized, apperr.InvalidToken:
		return http.StatusUnauthorized
	case apperr.InvalidOrExpiredOtp, apperr.Validation:
		return http.StatusBadRequest
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeError answers with the error's own message for caller-facing kinds and
// a generic one, logged in full, for everything else.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, status, dto.ErrorResponse{Error: fallback})
		return
	}

	var appErr *apperr.Error
	errors.As(err, &appErr)
	writeJSON(w, status, dto.ErrorResponse{Error: appErr.Message})
}

// decode reads a JSON body into v and runs its validation. It writes the
// response and returns false when the request is unusable.
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() map[string]string }) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}

	if errs := v.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return false
	}
	return true
}

// writeDateError answers a request whose date failed to convert after
// validation.
func writeDateError(w http.ResponseWriter, err error) {
	var details map[string]string
	var dateErr *dto.DateError
	if errors.As(err, &dateErr) {
		details = dateErr.Details()
	}
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: details})
}

// pathID parses a uuid URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter.
func queryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
		return nil, false
	}
	return &id, true
}
