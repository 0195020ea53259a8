package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

type CreateBookingRequest struct {
	PropertyID uuid.UUID `json:"propertyId" validate:"required"`
	VisitDate  string    `json:"visitDate" validate:"required"`
	VisitTime  string    `json:"visitTime" validate:"required"`
	Message    string    `json:"message" validate:"max=500"`
	TotalPrice *float64  `json:"totalPrice,omitempty" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=500"`
}

type BookingDTO struct {
	ID          uuid.UUID               `json:"id"`
	PropertyID  uuid.UUID               `json:"propertyId"`
	UserID      uuid.UUID               `json:"userId"`
	OwnerID     uuid.UUID               `json:"ownerId"`
	VisitDate   string                  `json:"visitDate"`
	VisitTime   string                  `json:"visitTime"`
	Status      enums.BookingStatus     `json:"status"`
	Message     string                  `json:"message,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
	TotalPrice  float64                 `json:"totalPrice"`
	ConfirmedAt *time.Time              `json:"confirmedAt,omitempty"`
	CancelledAt *time.Time              `json:"cancelledAt,omitempty"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
	Property    *properties.PropertyDTO `json:"property,omitempty"`
	User        *users.Summary          `json:"user,omitempty"`
	Owner       *users.Summary          `json:"owner,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func FromModel(b *models.Booking) BookingDTO {
	total, _ := b.TotalPrice.Float64()
	return BookingDTO{
		ID:          b.ID,
		PropertyID:  b.PropertyID,
		UserID:      b.UserID,
		OwnerID:     b.OwnerID,
		VisitDate:   b.VisitDate.UTC().Format(dateLayout),
		VisitTime:   b.VisitTime,
		Status:      b.Status,
		Message:     b.Message,
		Notes:       b.Notes,
		TotalPrice:  total,
		ConfirmedAt: b.ConfirmedAt,
		CancelledAt: b.CancelledAt,
		CompletedAt: b.CompletedAt,
		Property:    properties.FromModel(b.Property),
		User:        users.SummaryFromModel(b.User),
		Owner:       users.SummaryFromModel(b.Owner),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func FromModels(rows []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
