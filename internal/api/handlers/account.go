package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
)

type AccountHandler struct {
	svc    *account.Service
	logger *slog.Logger
	cookie CookieOptions
}

// CookieOptions shape the token cookie set on login.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

func NewAccountHandler(svc *account.Service, cookie CookieOptions, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger, cookie: cookie}
}

func (h *AccountHandler) setSessionCookies(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
	})
	if err := middleware.SetCSRFCookie(w, r); err != nil {
		h.logger.Warn("failed to issue CSRF cookie", "error", err)
	}
}

// Setup handles POST /api/v1/account/setup
func (h *AccountHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req dto.SetupRequest
	if !decode(w, r, &req) {
		return
	}

	invite, err := h.svc.Setup(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, h.logger, err, "Setup failed")
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

// SendInvite handles POST /api/v1/account/send-invite
func (h *AccountHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	var req dto.SendInviteRequest
	if !decode(w, r, &req) {
		return
	}

	invite, err := h.svc.SendInvite(r.Context(), middleware.GetUser(r.Context()), req.Email, req.Role)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to send invite")
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

// ResendInvite handles POST /api/v1/account/resend-invite/{inviteID}
func (h *AccountHandler) ResendInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "inviteID")
	if !ok {
		return
	}

	invite, err := h.svc.ResendInvite(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to resend invite")
		return
	}

	writeJSON(w, http.StatusOK, invite)
}

// GetInvite handles GET /api/v1/account/invites/{inviteID}
func (h *AccountHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "inviteID")
	if !ok {
		return
	}

	invite, err := h.svc.GetInvite(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get invite")
		return
	}

	writeJSON(w, http.StatusOK, invite)
}

// ListInvites handles GET /api/v1/account/invites
func (h *AccountHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.GetInvites(r.Context(), dto.ListParams(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to list invites")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// AcceptInvite handles POST /api/v1/account/accept-invite/{inviteID}
func (h *AccountHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "inviteID")
	if !ok {
		return
	}

	var req dto.AcceptInviteRequest
	if !decode(w, r, &req) {
		return
	}

	in, err := req.Input()
	if err != nil {
		writeDateError(w, err)
		return
	}

	user, err := h.svc.AcceptInvite(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to accept invite")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/account/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err, "Login failed")
		return
	}

	h.setSessionCookies(w, r, session.Token)
	writeJSON(w, http.StatusOK, session)
}

// Logout handles POST /api/v1/account/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), middleware.GetUser(r.Context())); err != nil {
		writeError(w, r, h.logger, err, "Logout failed")
		return
	}

	for _, name := range []string{middleware.TokenCookie, middleware.CSRFCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

// Me handles GET /api/v1/account
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get account")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateInfo handles PUT /api/v1/account
func (h *AccountHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateInfoRequest
	if !decode(w, r, &req) {
		return
	}

	update, err := req.Update()
	if err != nil {
		writeDateError(w, err)
		return
	}

	user, err := h.svc.UpdateInfo(r.Context(), middleware.GetUser(r.Context()), update)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update account")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdatePassword handles PUT /api/v1/account/update-password. The session
// is rotated, so the response carries the new token.
func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.svc.UpdatePassword(r.Context(), middleware.GetUser(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update password")
		return
	}

	h.setSessionCookies(w, r, session.Token)
	writeJSON(w, http.StatusOK, session)
}

// ForgotPassword handles POST /api/v1/account/forgot-password. The answer is
// the same whether or not the email belongs to an account.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err, "Failed to send reset code")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "If the email belongs to an account, a reset code has been sent"})
}

// VerifyOTP handles POST /api/v1/account/verify-otp
func (h *AccountHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.svc.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to verify code")
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyOTPResponse{Token: token})
}

// ResetPassword handles POST /api/v1/account/reset-password
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, h.logger, err, "Failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password has been reset"})
}

// ListUsers handles GET /api/v1/account/users
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := store.UserFilter{}
	if role := models.Role(r.URL.Query().Get("role")); role != "" {
		if !role.Valid() {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role"})
			return
		}
		filter.Role = role
	}

	page, err := h.svc.GetUsers(r.Context(), dto.ListParams(r.URL.Query()), filter)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetUser handles GET /api/v1/account/users/{userID}
func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeactivateUser handles DELETE /api/v1/account/users/{userID}
func (h *AccountHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.svc.DeactivateUser(r.Context(), middleware.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err, "Failed to deactivate user")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "User deactivated"})
}

// MakeAdmin handles PUT /api/v1/account/users/{userID}/admin
func (h *AccountHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	user, err := h.svc.MakeAdmin(r.Context(), middleware.GetUser(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to promote user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
