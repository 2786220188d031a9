package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkpilot-ai/linkpilot/domains/content"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"gorm.io/gorm"
)

// contentItemModel is the persistence model for GORM. Keeps the domain
// struct free of persistence tags.
type contentItemModel struct {
	ID             string `gorm:"primaryKey"`
	UserID         string `gorm:"column:user_id;index"`
	Prompt         string
	Body           string
	ImageURL       string `gorm:"column:image_url"`
	Status         string `gorm:"index"`
	ScheduledAt    *time.Time
	PublishedAt    *time.Time
	ExternalPostID string `gorm:"column:external_post_id"`
	LastError      string `gorm:"column:last_error"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (contentItemModel) TableName() string {
	return "content_items"
}

func toContentModel(i content.Item) contentItemModel {
	return contentItemModel{
		ID:             i.ID,
		UserID:         i.UserID,
		Prompt:         i.Prompt,
		Body:           i.Body,
		ImageURL:       i.ImageURL,
		Status:         string(i.Status),
		ScheduledAt:    i.ScheduledAt,
		PublishedAt:    i.PublishedAt,
		ExternalPostID: i.ExternalPostID,
		LastError:      i.LastError,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func fromContentModel(m contentItemModel) content.Item {
	return content.Item{
		ID:             m.ID,
		UserID:         m.UserID,
		Prompt:         m.Prompt,
		Body:           m.Body,
		ImageURL:       m.ImageURL,
		Status:         content.Status(m.Status),
		ScheduledAt:    m.ScheduledAt,
		PublishedAt:    m.PublishedAt,
		ExternalPostID: m.ExternalPostID,
		LastError:      m.LastError,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ContentGormRepository implements content.IContentRepository using GORM.
type ContentGormRepository struct {
	db *gorm.DB
}

func NewContentGormRepository(db *gorm.DB) *ContentGormRepository {
	return &ContentGormRepository{db: db}
}

func (r *ContentGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&contentItemModel{})
}

func (r *ContentGormRepository) Create(ctx context.Context, item *content.Item) error {
	now := time.Now().UTC()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Status == "" {
		item.Status = content.StatusDraft
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	model := toContentModel(*item)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ContentGormRepository) GetByID(ctx context.Context, id string) (content.Item, error) {
	var model contentItemModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return content.Item{}, pkgError.NotFoundError("content item not found")
		}
		return content.Item{}, err
	}
	return fromContentModel(model), nil
}

func (r *ContentGormRepository) ListByUser(ctx context.Context, userID string, status content.Status) ([]content.Item, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var models []contentItemModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]content.Item, len(models))
	for i, m := range models {
		items[i] = fromContentModel(m)
	}
	return items, nil
}

func (r *ContentGormRepository) Update(ctx context.Context, id string, req content.UpdateRequest) (content.Item, error) {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Body != nil {
		fields["body"] = *req.Body
	}
	if req.Status != nil {
		fields["status"] = string(*req.Status)
	}
	if req.ScheduledAt != nil {
		fields["scheduled_at"] = req.ScheduledAt.UTC()
		fields["status"] = string(content.StatusScheduled)
	}
	res := r.db.WithContext(ctx).Model(&contentItemModel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return content.Item{}, res.Error
	}
	if res.RowsAffected == 0 {
		return content.Item{}, pkgError.NotFoundError("content item not found")
	}
	return r.GetByID(ctx, id)
}

func (r *ContentGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&contentItemModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("content item not found")
	}
	return nil
}

func (r *ContentGormRepository) ListDue(ctx context.Context, before time.Time) ([]content.Item, error) {
	return r.listByStatusBefore(ctx, content.StatusScheduled, "scheduled_at", before)
}

func (r *ContentGormRepository) ListDueWithin(ctx context.Context, horizon time.Time) ([]content.Item, error) {
	return r.listByStatusBefore(ctx, content.StatusScheduled, "scheduled_at", horizon)
}

func (r *ContentGormRepository) ListStalePublishing(ctx context.Context, olderThan time.Time) ([]content.Item, error) {
	return r.listByStatusBefore(ctx, content.StatusPublishing, "updated_at", olderThan)
}

func (r *ContentGormRepository) listByStatusBefore(ctx context.Context, status content.Status, column string, before time.Time) ([]content.Item, error) {
	var models []contentItemModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND "+column+" <= ?", string(status), before.UTC()).
		Order(column + " ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	items := make([]content.Item, len(models))
	for i, m := range models {
		items[i] = fromContentModel(m)
	}
	return items, nil
}

// ClaimScheduled is the compare-and-swap guard of the dispatch path: a single
// conditional UPDATE that moves the row to `publishing` only while it is
// still `scheduled`. Zero affected rows means another execution claimed it
// first, or the item was edited or cancelled.
func (r *ContentGormRepository) ClaimScheduled(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&contentItemModel{}).
		Where("id = ? AND status = ?", id, string(content.StatusScheduled)).
		Updates(map[string]any{
			"status":     string(content.StatusPublishing),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ContentGormRepository) MarkScheduled(ctx context.Context, id string, at time.Time) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&contentItemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       string(content.StatusScheduled),
			"scheduled_at": at.UTC(),
			"last_error":   "",
			"updated_at":   now,
		}).Error
}

func (r *ContentGormRepository) MarkPublished(ctx context.Context, id, externalPostID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&contentItemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":           string(content.StatusPublished),
			"published_at":     now,
			"external_post_id": externalPostID,
			"last_error":       "",
			"updated_at":       now,
		}).Error
}

func (r *ContentGormRepository) MarkFailed(ctx context.Context, id string, lastErr string) error {
	return r.db.WithContext(ctx).Model(&contentItemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(content.StatusFailed),
			"last_error": lastErr,
			"updated_at": time.Now().UTC(),
		}).Error
}
