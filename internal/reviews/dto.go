package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
)

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=500"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,min=1,max=500"`
}

// PropertyBrief is the listing summary attached to "my reviews".
type PropertyBrief struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Images []string  `json:"images"`
	Price  float64   `json:"price"`
}

type ReviewDTO struct {
	ID         uuid.UUID      `json:"id"`
	PropertyID uuid.UUID      `json:"propertyId"`
	UserID     uuid.UUID      `json:"userId"`
	Rating     int            `json:"rating"`
	Comment    string         `json:"comment"`
	User       *users.Summary `json:"user,omitempty"`
	Property   *PropertyBrief `json:"property,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func FromModel(r *models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:         r.ID,
		PropertyID: r.PropertyID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		User:       users.SummaryFromModel(r.User),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if p := r.Property; p != nil {
		price, _ := p.Price.Float64()
		dto.Property = &PropertyBrief{ID: p.ID, Title: p.Title, Images: append([]string{}, p.Images...), Price: price}
	}
	return dto
}

func fromModels(rows []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
