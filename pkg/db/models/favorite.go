package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to a liked property.
type Favorite struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:favorites_user_property_key"`
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;not null;uniqueIndex:favorites_user_property_key"`
	Property   *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}
