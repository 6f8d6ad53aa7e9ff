package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/auth"
	"github.com/hugh/go-crm/internal/database"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password every fixture user is created with.
const TestPassword = "Testpassword1!"

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every new connection to ":memory:" is a fresh, empty database, and the
	// activity recorder writes from other goroutines.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := database.Close(db); err != nil {
		t.Logf("warning: failed to close test database: %v", err)
	}
}

// Clock is a settable clock for services that take a now func.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Epoch is the fixed start time used by NewTestContext.
var Epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// CreateTestUser creates an active user with the given role and TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID:        uuid.New(),
			CreatedAt: Epoch.Unix(),
			UpdatedAt: Epoch.Unix(),
		},
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       models.UserStatusActive,
		SessionID:    uuid.NewString(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour, 15*time.Minute)
}

// GenerateTestToken generates a valid JWT token for the given user's current session
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.SessionID)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// CreateTestClient creates a client owned by responsible.
func CreateTestClient(t *testing.T, db *gorm.DB, name string, responsible uuid.UUID) *models.Client {
	t.Helper()

	client := &models.Client{
		Base: models.Base{
			ID:        uuid.New(),
			CreatedAt: Epoch.Unix(),
			UpdatedAt: Epoch.Unix(),
		},
		Name:              name,
		Email:             "billing@" + uuid.New().String()[:8] + ".example.com",
		ResponsibleUserID: responsible,
	}

	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}

	return client
}

// CreateTestContact creates a contact at the given client.
func CreateTestContact(t *testing.T, db *gorm.DB, clientID uuid.UUID, name string, responsible uuid.UUID) *models.Contact {
	t.Helper()

	contact := &models.Contact{
		Base: models.Base{
			ID:        uuid.New(),
			CreatedAt: Epoch.Unix(),
			UpdatedAt: Epoch.Unix(),
		},
		ClientID:          clientID,
		Name:              name,
		ResponsibleUserID: responsible,
	}

	if err := db.Create(contact).Error; err != nil {
		t.Fatalf("failed to create test contact: %v", err)
	}

	return contact
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	Store      *store.Store
	Clock      *Clock
	JWTService *auth.JWTService
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, stores, an admin
// user and a token for that user's session.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	clock := NewClock(Epoch)
	jwtService := CreateTestJWTService().WithClock(clock.Now)
	user := CreateTestUser(t, db, models.RoleSuperAdmin)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		Store:      store.New(db, 20),
		Clock:      clock,
		JWTService: jwtService,
		User:       user,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		_ = database.Close(ts.DB)
	}
}
