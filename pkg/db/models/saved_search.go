package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SearchFilters is the stored criteria of a saved search. Nil or empty
// fields do not constrain the match.
type SearchFilters struct {
	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	MinArea     *float64 `json:"minArea,omitempty"`
	MaxArea     *float64 `json:"maxArea,omitempty"`
	Type        string   `json:"type,omitempty"`
	Status      string   `json:"status,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *int     `json:"bathrooms,omitempty"`
	City        string   `json:"city,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Furnished   *bool    `json:"furnished,omitempty"`
	Parking     *bool    `json:"parking,omitempty"`
	PetsAllowed *bool    `json:"petsAllowed,omitempty"`
}

type SavedSearch struct {
	ID                   uuid.UUID                         `gorm:"column:id;type:uuid;primaryKey"`
	UserID               uuid.UUID                         `gorm:"column:user_id;type:uuid;not null;index:saved_searches_user_id_idx"`
	Name                 string                            `gorm:"column:name;not null"`
	Filters              datatypes.JSONType[SearchFilters] `gorm:"column:filters;type:jsonb;not null"`
	NotificationsEnabled bool                              `gorm:"column:notifications_enabled;not null"`
	LastNotifiedAt       *time.Time                        `gorm:"column:last_notified_at"`
	User                 *User                             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time                         `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time                         `gorm:"column:updated_at;not null"`
}
