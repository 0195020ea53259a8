package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

// Booking is a requested visit of a property. OwnerID is copied from the
// property when the booking is created.
type Booking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PropertyID  uuid.UUID           `gorm:"column:property_id;type:uuid;not null;uniqueIndex:bookings_user_slot_key,priority:2"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:bookings_user_slot_key,priority:1"`
	OwnerID     uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index:bookings_owner_id_idx"`
	VisitDate   time.Time           `gorm:"column:visit_date;type:date;not null;uniqueIndex:bookings_user_slot_key,priority:3"`
	VisitTime   string              `gorm:"column:visit_time;not null;uniqueIndex:bookings_user_slot_key,priority:4"`
	Status      enums.BookingStatus `gorm:"column:status;not null"`
	Message     string              `gorm:"column:message"`
	Notes       string              `gorm:"column:notes"`
	TotalPrice  decimal.Decimal     `gorm:"column:total_price;type:numeric(14,2);not null"`
	ConfirmedAt *time.Time          `gorm:"column:confirmed_at"`
	CancelledAt *time.Time          `gorm:"column:cancelled_at"`
	CompletedAt *time.Time          `gorm:"column:completed_at"`
	Property    *Property           `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	User        *User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Owner       *User               `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;not null"`
}
