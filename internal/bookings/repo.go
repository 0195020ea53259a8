package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

const bookingSlotConstraint = "bookings_user_slot_key"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("User").
		Preload("Owner").
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns the requester's bookings, soonest visit first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Owner").
		Where("user_id = ?", userID).
		Order("visit_date ASC, visit_time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("User").
		Where("owner_id = ?", ownerID).
		Order("visit_date ASC, visit_time ASC").
		Find(&rows).Error
	return rows, err
}

// BookedSlots lists the visit times held by pending or confirmed bookings of
// the property on day.
func (r *Repository) BookedSlots(ctx context.Context, propertyID uuid.UUID, day time.Time) ([]string, error) {
	var slots []string
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("property_id = ?", propertyID).
		Where("visit_date >= ? AND visit_date < ?", day, day.AddDate(0, 0, 1)).
		Where("status IN ?", []enums.BookingStatus{enums.BookingStatusPending, enums.BookingStatusConfirmed}).
		Order("visit_time ASC").
		Pluck("visit_time", &slots).Error
	return slots, err
}
