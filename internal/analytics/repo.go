package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListingTotals counts an owner's listings and their accumulated views.
type ListingTotals struct {
	Properties int64
	Views      int64
}

func (r *Repository) OwnerListingTotals(ctx context.Context, ownerID uuid.UUID) (ListingTotals, error) {
	var agg ListingTotals
	err := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("COUNT(*) AS properties, COALESCE(SUM(views), 0) AS views").
		Where("owner_id = ?", ownerID).
		Scan(&agg).Error
	return agg, err
}

// OwnerConfirmedTotals returns the price of every confirmed booking on the
// owner's current listings.
func (r *Repository) OwnerConfirmedTotals(ctx context.Context, ownerID uuid.UUID) ([]decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("properties.owner_id = ? AND bookings.status = ?", ownerID, enums.BookingStatusConfirmed).
		Pluck("bookings.total_price", &totals).Error
	return totals, err
}

func (r *Repository) FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ConfirmedBookings(ctx context.Context, propertyID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("property_id = ? AND status = ?", propertyID, enums.BookingStatusConfirmed).
		Order("visit_date ASC, visit_time ASC").
		Find(&rows).Error
	return rows, err
}
