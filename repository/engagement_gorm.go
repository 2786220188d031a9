package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkpilot-ai/linkpilot/domains/engagement"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"gorm.io/gorm"
)

type autoCommentModel struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"column:user_id;index"`
	TargetPostURL string `gorm:"column:target_post_url"`
	TargetAuthor  string `gorm:"column:target_author"`
	Body          string
	Status        string `gorm:"index"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

func (autoCommentModel) TableName() string {
	return "auto_comments"
}

type creatorReportModel struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"column:user_id;index"`
	Creator   string
	Body      string
	CreatedAt time.Time `gorm:"index"`
}

func (creatorReportModel) TableName() string {
	return "creator_reports"
}

// EngagementGormRepository implements engagement.IEngagementRepository.
type EngagementGormRepository struct {
	db *gorm.DB
}

func NewEngagementGormRepository(db *gorm.DB) *EngagementGormRepository {
	return &EngagementGormRepository{db: db}
}

func (r *EngagementGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&autoCommentModel{}, &creatorReportModel{})
}

func (r *EngagementGormRepository) CreateComment(ctx context.Context, c *engagement.AutoComment) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = engagement.CommentPending
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	model := autoCommentModel{
		ID:            c.ID,
		UserID:        c.UserID,
		TargetPostURL: c.TargetPostURL,
		TargetAuthor:  c.TargetAuthor,
		Body:          c.Body,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *EngagementGormRepository) ListCommentsByUser(ctx context.Context, userID string) ([]engagement.AutoComment, error) {
	var models []autoCommentModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	comments := make([]engagement.AutoComment, len(models))
	for i, m := range models {
		comments[i] = engagement.AutoComment{
			ID:            m.ID,
			UserID:        m.UserID,
			TargetPostURL: m.TargetPostURL,
			TargetAuthor:  m.TargetAuthor,
			Body:          m.Body,
			Status:        engagement.CommentStatus(m.Status),
			CreatedAt:     m.CreatedAt,
			UpdatedAt:     m.UpdatedAt,
		}
	}
	return comments, nil
}

func (r *EngagementGormRepository) UpdateCommentStatus(ctx context.Context, id string, status engagement.CommentStatus) error {
	res := r.db.WithContext(ctx).Model(&autoCommentModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("comment not found")
	}
	return nil
}

func (r *EngagementGormRepository) CreateReport(ctx context.Context, report *engagement.CreatorReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.CreatedAt = time.Now().UTC()
	model := creatorReportModel{
		ID:        report.ID,
		UserID:    report.UserID,
		Creator:   report.Creator,
		Body:      report.Body,
		CreatedAt: report.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *EngagementGormRepository) ListReportsByUser(ctx context.Context, userID string) ([]engagement.CreatorReport, error) {
	var models []creatorReportModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	reports := make([]engagement.CreatorReport, len(models))
	for i, m := range models {
		reports[i] = engagement.CreatorReport{
			ID:        m.ID,
			UserID:    m.UserID,
			Creator:   m.Creator,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		}
	}
	return reports, nil
}
