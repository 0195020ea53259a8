package savedsearches

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, s *models.SavedSearch) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error) {
	var s models.SavedSearch
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedSearch, error) {
	var rows []models.SavedSearch
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.SavedSearch{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.SavedSearch{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListNotifiable returns every search with notifications on, with its owner,
// excluding searches belonging to excludeUserID.
func (r *Repository) ListNotifiable(ctx context.Context, excludeUserID uuid.UUID) ([]models.SavedSearch, error) {
	var rows []models.SavedSearch
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("notifications_enabled = ? AND user_id <> ?", true, excludeUserID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) StampNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SavedSearch{}).
		Where("id = ?", id).
		UpdateColumn("last_notified_at", at).Error
}
