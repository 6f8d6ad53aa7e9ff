package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/activity"
	"github.com/hugh/go-crm/internal/api/handlers"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/testutil"
	"github.com/hugh/go-crm/pkg/crypto"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1 << 20

type fakeNotifier struct {
	mu      sync.Mutex
	invites []uuid.UUID
	codes   []string
}

func (n *fakeNotifier) SendInvite(_ context.Context, _ string, inviteID uuid.UUID, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invites = append(n.invites, inviteID)
	return nil
}

func (n *fakeNotifier) SendPasswordResetCode(_ context.Context, _, code, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, code)
	return nil
}

type testAPI struct {
	setup    *testutil.TestSetup
	svc      *account.Service
	notifier *fakeNotifier
	objects  *storage.Memory
	router   *chi.Mux
}

// newTestAPI wires the handlers to real services over the sqlite test
// database. The setup user is the super admin and tc.Token is theirs.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	logger := util.NewDiscardLogger()
	recorder := activity.NewRecorder(tc.Store.Activities, logger, tc.Clock.Now)
	t.Cleanup(recorder.Wait)

	enc, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	api := &testAPI{
		setup:    tc,
		notifier: &fakeNotifier{},
		objects:  storage.NewMemory(),
	}
	api.svc = account.NewService(account.Deps{
		Users:    tc.Store.Users,
		Invites:  tc.Store.Invites,
		OTPs:     tc.Store.OTPs,
		Tokens:   tc.JWTService,
		Notifier: api.notifier,
		Activity: recorder,
		Logger:   logger,
	}, account.Options{
		Now:    tc.Clock.Now,
		NewOTP: func() (string, error) { return "123456", nil },
	})

	deps := crm.Deps{
		Clients:  tc.Store.Clients,
		Contacts: tc.Store.Contacts,
		Reports:  tc.Store.Reports,
		Users:    tc.Store.Users,
		Sealer:   enc,
		Storage:  api.objects,
		Activity: recorder,
		Logger:   logger,
		Now:      tc.Clock.Now,
	}

	accountHandler := handlers.NewAccountHandler(api.svc, handlers.CookieOptions{MaxAge: time.Hour}, logger)
	clientHandler := handlers.NewClientHandler(crm.NewClients(deps), testMaxUpload, logger)
	contactHandler := handlers.NewContactHandler(crm.NewContacts(deps), logger)
	reportHandler := handlers.NewReportHandler(crm.NewReports(deps), testMaxUpload, logger)
	activityHandler := handlers.NewActivityHandler(recorder, logger)

	r := chi.NewRouter()
	r.Post("/api/v1/account/setup", accountHandler.Setup)
	r.Get("/api/v1/account/invites/{inviteID}", accountHandler.GetInvite)
	r.Post("/api/v1/account/accept-invite/{inviteID}", accountHandler.AcceptInvite)
	r.Post("/api/v1/account/login", accountHandler.Login)
	r.Post("/api/v1/account/forgot-password", accountHandler.ForgotPassword)
	r.Post("/api/v1/account/verify-otp", accountHandler.VerifyOTP)
	r.Post("/api/v1/account/reset-password", accountHandler.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(api.svc))
		r.Use(middleware.CSRF)

		r.Get("/api/v1/account", accountHandler.Me)
		r.Put("/api/v1/account", accountHandler.UpdateInfo)
		r.Put("/api/v1/account/update-password", accountHandler.UpdatePassword)
		r.Post("/api/v1/account/logout", accountHandler.Logout)
		r.Get("/api/v1/account/users", accountHandler.ListUsers)
		r.Get("/api/v1/account/users/{userID}", accountHandler.GetUser)
		r.Post("/api/v1/account/send-invite", accountHandler.SendInvite)
		r.Get("/api/v1/account/invites", accountHandler.ListInvites)
		r.Delete("/api/v1/account/users/{userID}", accountHandler.DeactivateUser)
		r.Put("/api/v1/account/users/{userID}/admin", accountHandler.MakeAdmin)

		r.Get("/api/v1/clients", clientHandler.List)
		r.Post("/api/v1/clients", clientHandler.Create)
		r.Get("/api/v1/clients/{id}", clientHandler.Get)
		r.Put("/api/v1/clients/{id}", clientHandler.Update)
		r.Delete("/api/v1/clients/{id}", clientHandler.Delete)
		r.Put("/api/v1/clients/{id}/logo", clientHandler.UploadLogo)

		r.Get("/api/v1/contacts", contactHandler.List)
		r.Post("/api/v1/contacts", contactHandler.Create)
		r.Get("/api/v1/contacts/{id}", contactHandler.Get)
		r.Put("/api/v1/contacts/{id}", contactHandler.Update)
		r.Delete("/api/v1/contacts/{id}", contactHandler.Delete)

		r.Get("/api/v1/reports", reportHandler.List)
		r.Post("/api/v1/reports", reportHandler.Create)
		r.Get("/api/v1/reports/{id}", reportHandler.Get)
		r.Put("/api/v1/reports/{id}", reportHandler.Update)
		r.Delete("/api/v1/reports/{id}", reportHandler.Delete)
		r.Post("/api/v1/reports/{id}/files", reportHandler.AddFile)
		r.Delete("/api/v1/reports/{id}/files/{fileID}", reportHandler.DeleteFile)

		r.Get("/api/v1/activities", activityHandler.List)
	})

	api.router = r
	return api
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

type formFile struct {
	field string
	name  string
	body  string
}

// multipartRequest builds an authenticated multipart request.
func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
