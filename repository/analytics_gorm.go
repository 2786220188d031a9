package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkpilot-ai/linkpilot/domains/analytics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotModel struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"column:user_id;uniqueIndex:idx_snapshot_user_date"`
	Date          string `gorm:"uniqueIndex:idx_snapshot_user_date"`
	FollowerCount int    `gorm:"column:follower_count"`
	CreatedAt     time.Time
}

func (snapshotModel) TableName() string {
	return "analytics_snapshots"
}

type postMetricsModel struct {
	ID             string `gorm:"primaryKey"`
	UserID         string `gorm:"column:user_id;index"`
	ExternalPostID string `gorm:"column:external_post_id;uniqueIndex:idx_metrics_post_date"`
	Date           string `gorm:"uniqueIndex:idx_metrics_post_date"`
	Impressions    int
	Likes          int
	Comments       int
	Shares         int
	CreatedAt      time.Time
}

func (postMetricsModel) TableName() string {
	return "post_metrics"
}

// AnalyticsGormRepository implements analytics.IAnalyticsRepository. Upserts
// are keyed on (user, date) and (external post id, date) so the daily
// snapshot job stays idempotent when re-run within the same day.
type AnalyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

func (r *AnalyticsGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&snapshotModel{}, &postMetricsModel{})
}

func (r *AnalyticsGormRepository) UpsertSnapshot(ctx context.Context, s analytics.Snapshot) error {
	model := snapshotModel{
		ID:            uuid.New().String(),
		UserID:        s.UserID,
		Date:          s.Date,
		FollowerCount: s.FollowerCount,
		CreatedAt:     time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"follower_count"}),
	}).Create(&model).Error
}

func (r *AnalyticsGormRepository) UpsertPostMetrics(ctx context.Context, m analytics.PostMetrics) error {
	model := postMetricsModel{
		ID:             uuid.New().String(),
		UserID:         m.UserID,
		ExternalPostID: m.ExternalPostID,
		Date:           m.Date,
		Impressions:    m.Impressions,
		Likes:          m.Likes,
		Comments:       m.Comments,
		Shares:         m.Shares,
		CreatedAt:      time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_post_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"impressions", "likes", "comments", "shares"}),
	}).Create(&model).Error
}

func (r *AnalyticsGormRepository) ListSnapshots(ctx context.Context, userID string, since time.Time) ([]analytics.Snapshot, error) {
	var models []snapshotModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since.UTC().Format("2006-01-02")).
		Order("date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	snapshots := make([]analytics.Snapshot, len(models))
	for i, m := range models {
		snapshots[i] = analytics.Snapshot{
			ID:            m.ID,
			UserID:        m.UserID,
			Date:          m.Date,
			FollowerCount: m.FollowerCount,
			CreatedAt:     m.CreatedAt,
		}
	}
	return snapshots, nil
}

func (r *AnalyticsGormRepository) ListPostMetrics(ctx context.Context, userID string, since time.Time) ([]analytics.PostMetrics, error) {
	var models []postMetricsModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since.UTC().Format("2006-01-02")).
		Order("date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	metrics := make([]analytics.PostMetrics, len(models))
	for i, m := range models {
		metrics[i] = analytics.PostMetrics{
			ID:             m.ID,
			UserID:         m.UserID,
			ExternalPostID: m.ExternalPostID,
			Date:           m.Date,
			Impressions:    m.Impressions,
			Likes:          m.Likes,
			Comments:       m.Comments,
			Shares:         m.Shares,
			CreatedAt:      m.CreatedAt,
		}
	}
	return metrics, nil
}
