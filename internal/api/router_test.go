package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/activity"
	"github.com/hugh/go-crm/internal/api"
	"github.com/hugh/go-crm/internal/api/handlers"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/notify"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/testutil"
	"github.com/hugh/go-crm/pkg/crypto"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, requests int) (*api.Router, *testutil.TestSetup) {
	t.Helper()

	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	logger := util.NewDiscardLogger()
	recorder := activity.NewRecorder(tc.Store.Activities, logger, tc.Clock.Now)
	t.Cleanup(recorder.Wait)

	enc, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	svc := account.NewService(account.Deps{
		Users:    tc.Store.Users,
		Invites:  tc.Store.Invites,
		OTPs:     tc.Store.OTPs,
		Tokens:   tc.JWTService,
		Notifier: notify.NewLogNotifier(logger, false),
		Activity: recorder,
		Logger:   logger,
	}, account.Options{Now: tc.Clock.Now})

	deps := crm.Deps{
		Clients:  tc.Store.Clients,
		Contacts: tc.Store.Contacts,
		Reports:  tc.Store.Reports,
		Users:    tc.Store.Users,
		Sealer:   enc,
		Storage:  storage.NewMemory(),
		Activity: recorder,
		Logger:   logger,
		Now:      tc.Clock.Now,
	}

	limiter := middleware.NewRateLimiter(requests, time.Minute)
	t.Cleanup(limiter.Stop)

	router := api.NewRouter(api.RouterConfig{
		DB:             tc.Store,
		Logger:         logger,
		Account:        svc,
		Clients:        crm.NewClients(deps),
		Contacts:       crm.NewContacts(deps),
		Reports:        crm.NewReports(deps),
		Activities:     recorder,
		RateLimiter:    limiter,
		Cookie:         handlers.CookieOptions{MaxAge: time.Hour},
		MaxUploadBytes: 1 << 20,
	})
	return router, tc
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, 100)

	rr := serve(router, httptest.NewRequest("GET", "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp handlers.HealthResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["database"])

	rr = serve(router, httptest.NewRequest("GET", "/ready", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestRouter_Access(t *testing.T) {
	router, tc := newTestRouter(t, 100)
	admin := testutil.CreateTestUser(t, tc.DB, models.RoleAdmin)
	member := testutil.CreateTestUser(t, tc.DB, models.RoleUser)
	adminToken := testutil.GenerateTestToken(t, tc.JWTService, admin)
	memberToken := testutil.GenerateTestToken(t, tc.JWTService, member)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"public route", "POST", "/api/v1/account/login", "", http.StatusBadRequest},
		{"public invite lookup", "GET", "/api/v1/account/invites/" + uuid.NewString(), "", http.StatusNotFound},
		{"no token", "GET", "/api/v1/clients", "", http.StatusUnauthorized},
		{"bad token", "GET", "/api/v1/account", "garbage", http.StatusUnauthorized},
		{"account root", "GET", "/api/v1/account", memberToken, http.StatusOK},
		{"member lists clients", "GET", "/api/v1/clients", memberToken, http.StatusOK},
		{"member lists users", "GET", "/api/v1/account/users", memberToken, http.StatusOK},
		{"member cannot list invites", "GET", "/api/v1/account/invites", memberToken, http.StatusForbidden},
		{"member cannot invite", "POST", "/api/v1/account/send-invite", memberToken, http.StatusForbidden},
		{"member cannot deactivate", "DELETE", "/api/v1/account/users/" + admin.ID.String(), memberToken, http.StatusForbidden},
		{"admin lists invites", "GET", "/api/v1/account/invites", adminToken, http.StatusOK},
		{"admin cannot promote", "PUT", "/api/v1/account/users/" + member.ID.String() + "/admin", adminToken, http.StatusForbidden},
		{"super admin promotes", "PUT", "/api/v1/account/users/" + member.ID.String() + "/admin", tc.Token, http.StatusOK},
		{"activities", "GET", "/api/v1/activities", memberToken, http.StatusOK},
		{"unknown route", "GET", "/api/v1/nope", tc.Token, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router, testutil.AuthenticatedRequest(t, tt.method, tt.path, nil, tt.token))
			testutil.AssertStatus(t, rr, tt.wantStatus)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		rr := serve(router, httptest.NewRequest("GET", "/ready", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	}

	rr := serve(router, httptest.NewRequest("GET", "/ready", nil))
	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}
