package repository

import (
	"context"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/engagement"
	"gorm.io/gorm"
)

type inboundEmailModel struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"column:user_id;index"`
	Sender    string
	Subject   string
	Body      string
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (inboundEmailModel) TableName() string {
	return "inbound_emails"
}

// MaintenanceGormRepository implements scheduler.IMaintenanceStore: the
// retention purges the background maintenance loop runs. Pending comments are
// never purged regardless of age.
type MaintenanceGormRepository struct {
	db *gorm.DB
}

func NewMaintenanceGormRepository(db *gorm.DB) *MaintenanceGormRepository {
	return &MaintenanceGormRepository{db: db}
}

func (r *MaintenanceGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&inboundEmailModel{})
}

func (r *MaintenanceGormRepository) PurgeOldComments(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ? AND status <> ?", cutoff.UTC(), string(engagement.CommentPending)).
		Delete(&autoCommentModel{})
	return res.RowsAffected, res.Error
}

func (r *MaintenanceGormRepository) PurgeOldReports(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&creatorReportModel{})
	return res.RowsAffected, res.Error
}

func (r *MaintenanceGormRepository) PurgeExpiredEmails(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&inboundEmailModel{})
	return res.RowsAffected, res.Error
}
