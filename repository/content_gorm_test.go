package repository

import (
	"context"
	"testing"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/content"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One in-memory database per test: the pool must not hand out a second
	// connection with its own empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newContentRepo(t *testing.T) *ContentGormRepository {
	t.Helper()
	repo := NewContentGormRepository(setupTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func seedScheduled(t *testing.T, repo *ContentGormRepository, userID string, at time.Time) content.Item {
	t.Helper()
	item := content.Item{
		UserID:      userID,
		Body:        "scheduled post",
		Status:      content.StatusScheduled,
		ScheduledAt: &at,
	}
	require.NoError(t, repo.Create(context.Background(), &item))
	return item
}

func TestContentCreateAssignsDefaults(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	item := content.Item{UserID: "u1", Body: "a draft"}
	require.NoError(t, repo.Create(ctx, &item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, content.StatusDraft, item.Status)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "a draft", got.Body)
}

func TestContentGetByIDNotFound(t *testing.T) {
	repo := newContentRepo(t)

	_, err := repo.GetByID(context.Background(), "nope")

	var nf pkgError.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestClaimScheduledWinsOnce(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()
	item := seedScheduled(t, repo, "u1", time.Now().UTC())

	claimed, err := repo.ClaimScheduled(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim observes `publishing` and loses.
	claimed, err = repo.ClaimScheduled(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, content.StatusPublishing, got.Status)
}

func TestClaimScheduledIgnoresNonScheduled(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	item := content.Item{UserID: "u1", Body: "x", Status: content.StatusDraft}
	require.NoError(t, repo.Create(ctx, &item))

	claimed, err := repo.ClaimScheduled(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestListDueReturnsOnlyRipeScheduled(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := seedScheduled(t, repo, "u1", now.Add(-time.Minute))
	seedScheduled(t, repo, "u1", now.Add(time.Hour))

	published := content.Item{UserID: "u1", Body: "y", Status: content.StatusScheduled}
	scheduledAt := now.Add(-time.Hour)
	published.ScheduledAt = &scheduledAt
	require.NoError(t, repo.Create(ctx, &published))
	require.NoError(t, repo.MarkPublished(ctx, published.ID, "urn:li:share:1"))

	items, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, due.ID, items[0].ID)
}

func TestListDueWithinCoversLookahead(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inWindow := seedScheduled(t, repo, "u1", now.Add(2*time.Minute))
	seedScheduled(t, repo, "u1", now.Add(time.Hour))

	items, err := repo.ListDueWithin(ctx, now.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, inWindow.ID, items[0].ID)
}

func TestListStalePublishing(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()
	item := seedScheduled(t, repo, "u1", time.Now().UTC())

	claimed, err := repo.ClaimScheduled(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	// Freshly claimed: not stale yet.
	stale, err := repo.ListStalePublishing(ctx, time.Now().UTC().Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = repo.ListStalePublishing(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, item.ID, stale[0].ID)
}

func TestMarkScheduledClearsLastError(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()
	item := seedScheduled(t, repo, "u1", time.Now().UTC())

	require.NoError(t, repo.MarkFailed(ctx, item.ID, "gave up after 4 attempts"))
	got, _ := repo.GetByID(ctx, item.ID)
	require.Equal(t, content.StatusFailed, got.Status)
	require.NotEmpty(t, got.LastError)

	next := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.MarkScheduled(ctx, item.ID, next))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, content.StatusScheduled, got.Status)
	assert.Empty(t, got.LastError, "a reschedule starts from a clean slate")
	require.NotNil(t, got.ScheduledAt)
	assert.WithinDuration(t, next, *got.ScheduledAt, time.Second)
}

func TestMarkPublishedRecordsExternalID(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()
	item := seedScheduled(t, repo, "u1", time.Now().UTC())

	require.NoError(t, repo.MarkPublished(ctx, item.ID, "urn:li:share:99"))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, content.StatusPublished, got.Status)
	assert.Equal(t, "urn:li:share:99", got.ExternalPostID)
	assert.NotNil(t, got.PublishedAt)
}

func TestContentUpdateSetsScheduledStatus(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	item := content.Item{UserID: "u1", Body: "draft", Status: content.StatusApproved}
	require.NoError(t, repo.Create(ctx, &item))

	at := time.Now().UTC().Add(time.Hour)
	updated, err := repo.Update(ctx, item.ID, content.UpdateRequest{ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, content.StatusScheduled, updated.Status)
}

func TestContentUpdateNotFound(t *testing.T) {
	repo := newContentRepo(t)

	body := "x"
	_, err := repo.Update(context.Background(), "missing", content.UpdateRequest{Body: &body})

	var nf pkgError.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestContentDelete(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	item := content.Item{UserID: "u1", Body: "bye"}
	require.NoError(t, repo.Create(ctx, &item))
	require.NoError(t, repo.Delete(ctx, item.ID))

	var nf pkgError.NotFoundError
	assert.ErrorAs(t, repo.Delete(ctx, item.ID), &nf)
}

func TestListByUserFiltersStatus(t *testing.T) {
	repo := newContentRepo(t)
	ctx := context.Background()

	draft := content.Item{UserID: "u1", Body: "draft"}
	require.NoError(t, repo.Create(ctx, &draft))
	seedScheduled(t, repo, "u1", time.Now().UTC())
	seedScheduled(t, repo, "u2", time.Now().UTC())

	all, err := repo.ListByUser(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := repo.ListByUser(ctx, "u1", content.StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)
}
