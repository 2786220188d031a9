package repository

import (
	"context"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/user"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"gorm.io/gorm"
)

type userModel struct {
	ID               string `gorm:"primaryKey"`
	LinkedinUsername string `gorm:"column:linkedin_username;uniqueIndex"`
	UnipileAccountID string `gorm:"column:unipile_account_id"`
	VoiceProfile     string `gorm:"column:voice_profile"`
	LastScrapedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (userModel) TableName() string {
	return "users"
}

func fromUserModel(m userModel) user.User {
	return user.User{
		ID:               m.ID,
		LinkedinUsername: m.LinkedinUsername,
		UnipileAccountID: m.UnipileAccountID,
		VoiceProfile:     m.VoiceProfile,
		LastScrapedAt:    m.LastScrapedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// UserGormRepository implements user.IUserRepository using GORM.
type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userModel{})
}

func (r *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	model := userModel{
		ID:               u.ID,
		LinkedinUsername: u.LinkedinUsername,
		UnipileAccountID: u.UnipileAccountID,
		VoiceProfile:     u.VoiceProfile,
		LastScrapedAt:    u.LastScrapedAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *UserGormRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	var model userModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return user.User{}, pkgError.NotFoundError("user not found")
		}
		return user.User{}, err
	}
	return fromUserModel(model), nil
}

func (r *UserGormRepository) ListConnected(ctx context.Context) ([]user.User, error) {
	var models []userModel
	err := r.db.WithContext(ctx).
		Where("unipile_account_id <> ''").
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = fromUserModel(m)
	}
	return users, nil
}

func (r *UserGormRepository) SetUnipileAccount(ctx context.Context, id, accountID string) error {
	return r.updateFields(ctx, id, map[string]any{"unipile_account_id": accountID})
}

func (r *UserGormRepository) SetVoiceProfile(ctx context.Context, id, profile string) error {
	now := time.Now().UTC()
	return r.updateFields(ctx, id, map[string]any{
		"voice_profile":   profile,
		"last_scraped_at": now,
	})
}

func (r *UserGormRepository) updateFields(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("user not found")
	}
	return nil
}
