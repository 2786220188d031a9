package usecase

import (
	"context"
	"testing"

	domainEngagement "github.com/linkpilot-ai/linkpilot/domains/engagement"
	domainUser "github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/linkpilot-ai/linkpilot/generator"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type engagementFixture struct {
	service  domainEngagement.IEngagementUsecase
	repo     domainEngagement.IEngagementRepository
	provider *scriptedProvider
}

func setupEngagementFixture(t *testing.T) *engagementFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	userRepo := repository.NewUserGormRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	contentRepo := repository.NewContentGormRepository(db)
	require.NoError(t, contentRepo.Init(ctx))
	engagementRepo := repository.NewEngagementGormRepository(db)
	require.NoError(t, engagementRepo.Init(ctx))

	owner := domainUser.User{ID: "u1", LinkedinUsername: "jane", UnipileAccountID: "acc-1"}
	require.NoError(t, userRepo.Create(ctx, &owner))

	provider := &scriptedProvider{}
	registry := generator.NewRegistry()
	registry.Register(provider)
	writer := generator.NewGhostwriter(registry, userRepo, contentRepo)

	return &engagementFixture{
		service:  NewEngagementService(engagementRepo, writer),
		repo:     engagementRepo,
		provider: provider,
	}
}

func TestResearchCreatorStoresReport(t *testing.T) {
	f := setupEngagementFixture(t)
	f.provider.reply = "They post daily about AI tooling; comment with build-in-public angles."

	report, err := f.service.ResearchCreator(context.Background(), domainEngagement.ResearchRequest{
		UserID:    "u1",
		Creator:   "somecreator",
		PostsHTML: []string{"<p>AI agents will eat SaaS</p>", "<p>Ship small, ship often</p>"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "somecreator", report.Creator)
	assert.Equal(t, f.provider.reply, report.Body)
	assert.Contains(t, f.provider.lastUser, "Ship small, ship often")

	stored, err := f.service.ListReports(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, report.ID, stored[0].ID)
}

func TestResearchCreatorRequiresReadableText(t *testing.T) {
	f := setupEngagementFixture(t)

	_, err := f.service.ResearchCreator(context.Background(), domainEngagement.ResearchRequest{
		UserID:    "u1",
		Creator:   "somecreator",
		PostsHTML: []string{"<div><img src='x.png'/></div>"},
	})

	var ve pkgError.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestResearchCreatorValidatesRequest(t *testing.T) {
	f := setupEngagementFixture(t)

	_, err := f.service.ResearchCreator(context.Background(), domainEngagement.ResearchRequest{
		UserID:    "u1",
		PostsHTML: []string{"<p>x</p>"},
	})

	var ve pkgError.ValidationError
	assert.ErrorAs(t, err, &ve)
}
