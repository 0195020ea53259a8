package properties

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Location struct {
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	ZipCode     string      `json:"zipCode"`
	Coordinates Coordinates `json:"coordinates"`
}

// PropertyDTO is the transport shape of a listing.
type PropertyDTO struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Price         float64             `json:"price"`
	PropertyType  enums.PropertyType  `json:"propertyType"`
	Status        enums.ListingStatus `json:"status"`
	Area          float64             `json:"area"`
	Bedrooms      int                 `json:"bedrooms"`
	Bathrooms     int                 `json:"bathrooms"`
	Location      Location            `json:"location"`
	Images        []string            `json:"images"`
	Amenities     []string            `json:"amenities"`
	AverageRating float64             `json:"averageRating"`
	ReviewCount   int                 `json:"reviewCount"`
	Views         int64               `json:"views"`
	IsAvailable   bool                `json:"isAvailable"`
	Featured      bool                `json:"featured"`
	OwnerID       uuid.UUID           `json:"ownerId"`
	Owner         *users.Summary      `json:"owner,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func FromModel(p *models.Property) *PropertyDTO {
	if p == nil {
		return nil
	}
	price, _ := p.Price.Float64()
	return &PropertyDTO{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        price,
		PropertyType: p.PropertyType,
		Status:       p.Status,
		Area:         p.Area,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Location: Location{
			Address: p.Address,
			City:    p.City,
			State:   p.State,
			Country: p.Country,
			ZipCode: p.ZipCode,
			Coordinates: Coordinates{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			},
		},
		Images:        append([]string{}, p.Images...),
		Amenities:     append([]string{}, p.Amenities...),
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
		Views:         p.Views,
		IsAvailable:   p.IsAvailable,
		Featured:      p.Featured,
		OwnerID:       p.OwnerID,
		Owner:         users.SummaryFromModel(p.Owner),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromModels(rows []models.Property) []PropertyDTO {
	out := make([]PropertyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

type LocationInput struct {
	Address     string      `json:"address" validate:"required,max=200"`
	City        string      `json:"city" validate:"required,max=100"`
	State       string      `json:"state" validate:"max=100"`
	Country     string      `json:"country" validate:"max=100"`
	ZipCode     string      `json:"zipCode" validate:"max=20"`
	Coordinates Coordinates `json:"coordinates"`
}

type CreatePropertyRequest struct {
	Title        string        `json:"title" validate:"required,max=100"`
	Description  string        `json:"description" validate:"required,max=2000"`
	Price        float64       `json:"price" validate:"gte=0"`
	PropertyType string        `json:"propertyType" validate:"required"`
	Status       string        `json:"status" validate:"required"`
	Area         float64       `json:"area" validate:"gt=0"`
	Bedrooms     int           `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int           `json:"bathrooms" validate:"gte=0"`
	Location     LocationInput `json:"location" validate:"required"`
	Amenities    []string      `json:"amenities" validate:"max=50,dive,max=50"`
	IsAvailable  *bool         `json:"isAvailable,omitempty"`
	Featured     bool          `json:"featured"`
}

// UpdatePropertyRequest changes only the fields that are present.
type UpdatePropertyRequest struct {
	Title        *string        `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string        `json:"description,omitempty" validate:"omitempty,min=1,max=2000"`
	Price        *float64       `json:"price,omitempty" validate:"omitempty,gte=0"`
	PropertyType *string        `json:"propertyType,omitempty"`
	Status       *string        `json:"status,omitempty"`
	Area         *float64       `json:"area,omitempty" validate:"omitempty,gt=0"`
	Bedrooms     *int           `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms    *int           `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	Location     *LocationInput `json:"location,omitempty"`
	Amenities    []string       `json:"amenities,omitempty" validate:"omitempty,max=50,dive,max=50"`
	IsAvailable  *bool          `json:"isAvailable,omitempty"`
	Featured     *bool          `json:"featured,omitempty"`
}

// Filters is the listing search predicate. Zero values do not constrain.
type Filters struct {
	PropertyType string
	Status       string
	MinPrice     *float64
	MaxPrice     *float64
	City         string
	Bedrooms     *int
	Bathrooms    *int
	Search       string
}

// Actor is the authenticated caller of a write.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CanManage reports whether the actor may change the listing.
func (a Actor) CanManage(p *models.Property) bool {
	return p.IsOwnedBy(a.UserID) || a.Role == enums.UserRoleAdmin
}
