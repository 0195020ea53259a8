package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

// Repository exposes user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a fully built user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail matches the lower-cased address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByProviderID looks an account up by its social identity.
func (r *Repository) FindByProviderID(ctx context.Context, provider enums.OAuthProvider, providerID string) (*models.User, error) {
	column := "google_id"
	if provider == enums.OAuthProviderFacebook {
		column = "facebook_id"
	}
	var user models.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", providerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies column updates and reports gorm.ErrRecordNotFound when no
// row matched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the account; owned rows go with it through FK cascades.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// OwnedImages lists the stored image names of every listing the user owns.
func (r *Repository) OwnedImages(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	var rows []models.Property
	if err := r.db.WithContext(ctx).Select("images").Where("owner_id = ?", ownerID).Find(&rows).Error; err != nil {
		return nil, err
	}
	var names []string
	for _, row := range rows {
		names = append(names, row.Images...)
	}
	return names, nil
}

// DB exposes the underlying connection for transactional callers.
func (r *Repository) DB() *gorm.DB {
	return r.db
}
