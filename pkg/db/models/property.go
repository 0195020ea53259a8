package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

// MaxPropertyImages caps the image list of a listing.
const MaxPropertyImages = 10

// DefaultCountry is applied when a listing omits its country.
const DefaultCountry = "Morocco"

// Property is a listing. AverageRating and ReviewCount are written only by
// the review aggregate recompute.
type Property struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	Title         string                     `gorm:"column:title;not null"`
	Description   string                     `gorm:"column:description;not null"`
	Price         decimal.Decimal            `gorm:"column:price;type:numeric(14,2);not null"`
	PropertyType  enums.PropertyType         `gorm:"column:property_type;not null"`
	Status        enums.ListingStatus        `gorm:"column:status;not null"`
	Area          float64                    `gorm:"column:area;not null"`
	Bedrooms      int                        `gorm:"column:bedrooms;not null"`
	Bathrooms     int                        `gorm:"column:bathrooms;not null"`
	Address       string                     `gorm:"column:address;not null"`
	City          string                     `gorm:"column:city;not null"`
	State         string                     `gorm:"column:state"`
	Country       string                     `gorm:"column:country;not null"`
	ZipCode       string                     `gorm:"column:zip_code"`
	Latitude      *float64                   `gorm:"column:latitude"`
	Longitude     *float64                   `gorm:"column:longitude"`
	Images        datatypes.JSONSlice[string] `gorm:"column:images;type:jsonb;not null"`
	Amenities     datatypes.JSONSlice[string] `gorm:"column:amenities;type:jsonb;not null"`
	AverageRating float64                    `gorm:"column:average_rating;not null"`
	ReviewCount   int                        `gorm:"column:review_count;not null"`
	Views         int64                      `gorm:"column:views;not null"`
	IsAvailable   bool                       `gorm:"column:is_available;not null"`
	Featured      bool                       `gorm:"column:featured;not null"`
	OwnerID       uuid.UUID                  `gorm:"column:owner_id;type:uuid;not null;index:properties_owner_id_idx"`
	Owner         *User                      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time                  `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;not null"`
}

// IsOwnedBy reports whether userID owns the listing.
func (p *Property) IsOwnedBy(userID uuid.UUID) bool {
	return p != nil && p.OwnerID == userID
}
