package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountHandler_Setup(t *testing.T) {
	api := newTestAPI(t)

	t.Run("already initialized", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/setup", map[string]string{"email": "root@example.com"})
		rr := api.do(req)

		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("invalid email", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/setup", map[string]string{"email": "nope"})
		rr := api.do(req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "email")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/account/setup", stringsReader("{"))
		rr := api.do(req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

// TestAccountHandler_InviteToLogout walks an invited user from the invite
// email to a cookie session and back out.
func TestAccountHandler_InviteToLogout(t *testing.T) {
	api := newTestAPI(t)
	admin := api.setup.Token

	// 1. Invite
	rr := api.do(testutil.AuthenticatedRequest(t, "POST", "/api/v1/account/send-invite",
		map[string]string{"email": "New.Hire@Example.com", "role": string(models.RoleUser)}, admin))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var invite models.Invite
	testutil.ParseJSONResponse(t, rr, &invite)
	assert.Equal(t, "new.hire@example.com", invite.Email)
	require.Len(t, api.notifier.invites, 1)
	assert.Equal(t, invite.ID, api.notifier.invites[0])

	// 2. The invitee opens the link
	rr = api.do(testutil.UnauthenticatedRequest(t, "GET", "/api/v1/account/invites/"+invite.ID.String(), nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	// 3. Accept
	accept := map[string]string{
		"first_name":    "New",
		"last_name":     "Hire",
		"date_of_birth": "1990-04-01",
		"password":      "Welcome1!",
	}
	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/accept-invite/"+invite.ID.String(), accept))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/accept-invite/"+invite.ID.String(), accept))
	assert.Equal(t, http.StatusConflict, rr.Code, "an invite is accepted once")

	// 4. Login sets the session cookies
	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/login",
		map[string]string{"email": "new.hire@example.com", "password": "Welcome1!"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var session account.Session
	testutil.ParseJSONResponse(t, rr, &session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, models.RoleUser, session.User.Role)

	tokenCookie := cookieNamed(rr, middleware.TokenCookie)
	require.NotNil(t, tokenCookie)
	assert.True(t, tokenCookie.HttpOnly)
	assert.Equal(t, session.Token, tokenCookie.Value)
	csrfCookie := cookieNamed(rr, middleware.CSRFCookie)
	require.NotNil(t, csrfCookie)

	// 5. The cookie authenticates
	req := httptest.NewRequest("GET", "/api/v1/account", nil)
	req.AddCookie(tokenCookie)
	rr = api.do(req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var me models.User
	testutil.ParseJSONResponse(t, rr, &me)
	assert.Equal(t, "new.hire@example.com", me.Email)

	// 6. Unsafe cookie requests need the CSRF header
	req = httptest.NewRequest("POST", "/api/v1/account/logout", nil)
	req.AddCookie(tokenCookie)
	req.AddCookie(csrfCookie)
	rr = api.do(req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	req = httptest.NewRequest("POST", "/api/v1/account/logout", nil)
	req.AddCookie(tokenCookie)
	req.AddCookie(csrfCookie)
	req.Header.Set(middleware.CSRFHeader, csrfCookie.Value)
	rr = api.do(req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	cleared := cookieNamed(rr, middleware.TokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// 7. The old token is dead
	rr = api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestAccountHandler_Login(t *testing.T) {
	api := newTestAPI(t)
	email := api.setup.User.Email

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"success", map[string]string{"email": email, "password": testutil.TestPassword}, http.StatusOK},
		{"wrong password", map[string]string{"email": email, "password": "Wrongpass1!"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "ghost@example.com", "password": testutil.TestPassword}, http.StatusNotFound},
		{"missing password", map[string]string{"email": email}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/login", tt.body))
			testutil.AssertStatus(t, rr, tt.wantStatus)
		})
	}
}

func TestAccountHandler_PasswordReset(t *testing.T) {
	api := newTestAPI(t)
	email := api.setup.User.Email

	t.Run("unknown email gets the same answer", func(t *testing.T) {
		rr := api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/forgot-password",
			map[string]string{"email": "ghost@example.com"}))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Empty(t, api.notifier.codes)
	})

	rr := api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/forgot-password",
		map[string]string{"email": email}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	require.Equal(t, []string{"123456"}, api.notifier.codes)

	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/verify-otp",
		map[string]string{"email": email, "code": "654321"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/verify-otp",
		map[string]string{"email": email, "code": "123456"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var verified dto.VerifyOTPResponse
	testutil.ParseJSONResponse(t, rr, &verified)
	require.NotEmpty(t, verified.Token)

	t.Run("reset token does not authenticate", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account", nil, verified.Token))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/reset-password",
		map[string]string{"token": verified.Token, "password": "N3wPassword!"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account", nil, api.setup.Token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "a reset ends the existing session")

	rr = api.do(testutil.UnauthenticatedRequest(t, "POST", "/api/v1/account/login",
		map[string]string{"email": email, "password": "N3wPassword!"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestAccountHandler_Users(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup.Token
	member := testutil.CreateTestUser(t, api.setup.DB, models.RoleUser)

	t.Run("list with invalid role", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account/users?role=OWNER", nil, token))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("list by role", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account/users?role=USER", nil, token))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var page struct {
			Items []models.User `json:"items"`
			Total int64         `json:"total"`
		}
		testutil.ParseJSONResponse(t, rr, &page)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, member.ID, page.Items[0].ID)
	})

	t.Run("get by invalid id", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account/users/not-a-uuid", nil, token))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("make admin", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "PUT", "/api/v1/account/users/"+member.ID.String()+"/admin", nil, token))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var user models.User
		testutil.ParseJSONResponse(t, rr, &user)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("cannot deactivate self", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/account/users/"+api.setup.User.ID.String(), nil, token))
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("deactivate", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/account/users/"+member.ID.String(), nil, token))
		testutil.AssertStatus(t, rr, http.StatusOK)

		memberToken := testutil.GenerateTestToken(t, api.setup.JWTService, member)
		rr = api.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/account", nil, memberToken))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("empty info update", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "PUT", "/api/v1/account", map[string]string{}, token))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("info update", func(t *testing.T) {
		rr := api.do(testutil.AuthenticatedRequest(t, "PUT", "/api/v1/account",
			map[string]string{"location": "Lisbon"}, token))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var user models.User
		testutil.ParseJSONResponse(t, rr, &user)
		assert.Equal(t, "Lisbon", user.Location)
	})
}
