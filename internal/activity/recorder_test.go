package activity_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/activity"
	"github.com/hugh/go-crm/internal/database/models"
	"github.com/hugh/go-crm/internal/store"
	"github.com/hugh/go-crm/internal/testutil"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Record(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	rec := activity.NewRecorder(setup.Store.Activities, util.NewDiscardLogger(), setup.Clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	rec.Record(ctx, &setup.User.ID, models.ActivityLogin, "Test User logged in")
	rec.Record(ctx, nil, models.ActivitySetup, "Set up invite sent to root@x.com")
	// Cancelling the request context must not lose the writes.
	cancel()
	rec.Wait()

	page, err := rec.List(context.Background(), store.ListParams{}, store.ActivityFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)

	byKind := map[models.ActivityKind]models.Activity{}
	for _, a := range page.Items {
		byKind[a.Kind] = a
	}

	login := byKind[models.ActivityLogin]
	require.NotNil(t, login.UserID)
	assert.Equal(t, setup.User.ID, *login.UserID)
	assert.Equal(t, testutil.Epoch.Unix(), login.CreatedAt)
	assert.Nil(t, byKind[models.ActivitySetup].UserID)
}

func TestRecorder_ListFilters(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	rec := activity.NewRecorder(setup.Store.Activities, util.NewDiscardLogger(), setup.Clock.Now)
	ctx := context.Background()
	other := uuid.New()

	rec.Record(ctx, &setup.User.ID, models.ActivityClient, "Created client Acme")
	rec.Record(ctx, &setup.User.ID, models.ActivityContact, "Created contact Wile E. Coyote")
	rec.Record(ctx, &other, models.ActivityClient, "Updated client Acme")
	rec.Wait()

	page, err := rec.List(ctx, store.ListParams{}, store.ActivityFilter{Kind: models.ActivityClient})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = rec.List(ctx, store.ListParams{}, store.ActivityFilter{UserID: &setup.User.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = rec.List(ctx, store.ListParams{Search: "coyote"}, store.ActivityFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, models.ActivityContact, page.Items[0].Kind)
}

type failingStore struct {
	*store.ActivityStore
}

func (failingStore) Create(context.Context, *models.Activity) error {
	return errors.New("database is gone")
}

func TestRecorder_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rec := activity.NewRecorder(failingStore{}, logger, nil)
	rec.Record(context.Background(), nil, models.ActivitySettings, "x")
	rec.Wait()

	assert.Contains(t, buf.String(), "failed to record activity")
	assert.Contains(t, buf.String(), "database is gone")
}

func TestRecorder_NilLoggerUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := activity.NewRecorder(failingStore{}, nil, nil)
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), nil, models.ActivityLogin, "x")
		rec.Wait()
	})
	assert.Contains(t, buf.String(), "database is gone")
}
