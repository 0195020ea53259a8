package savedsearches

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
)

type CreateRequest struct {
	Name                 string               `json:"name" validate:"required,max=50"`
	Filters              models.SearchFilters `json:"filters"`
	NotificationsEnabled *bool                `json:"notificationsEnabled,omitempty"`
}

type UpdateRequest struct {
	Name                 *string               `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Filters              *models.SearchFilters `json:"filters,omitempty"`
	NotificationsEnabled *bool                 `json:"notificationsEnabled,omitempty"`
}

type SavedSearchDTO struct {
	ID                   uuid.UUID            `json:"id"`
	UserID               uuid.UUID            `json:"userId"`
	Name                 string               `json:"name"`
	Filters              models.SearchFilters `json:"filters"`
	NotificationsEnabled bool                 `json:"notificationsEnabled"`
	LastNotifiedAt       *time.Time           `json:"lastNotified,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

func FromModel(s *models.SavedSearch) SavedSearchDTO {
	return SavedSearchDTO{
		ID:                   s.ID,
		UserID:               s.UserID,
		Name:                 s.Name,
		Filters:              s.Filters.Data(),
		NotificationsEnabled: s.NotificationsEnabled,
		LastNotifiedAt:       s.LastNotifiedAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}
