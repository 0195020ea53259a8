package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

// Service runs the visit booking lifecycle:
// pending -> confirmed | cancelled, confirmed -> cancelled | completed.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error)
	UpdateStatus(ctx context.Context, ownerID, bookingID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error)
	Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*BookingDTO, error)
	Delete(ctx context.Context, userID, bookingID uuid.UUID) error
	AvailableSlots(ctx context.Context, propertyID uuid.UUID, date string) (Availability, error)
}

type bookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Booking, error)
	BookedSlots(ctx context.Context, propertyID uuid.UUID, day time.Time) ([]string, error)
}

type ServiceParams struct {
	Repo bookingRepository
	Now  func() time.Time
}

type service struct {
	repo bookingRepository
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("booking repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, now: now}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	visitDate, err := ParseVisitDate(strings.TrimSpace(req.VisitDate))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid visit date")
	}
	visitTime := strings.TrimSpace(req.VisitTime)
	if !validSlot(visitTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visit time must be an hourly slot between 09:00 and 18:00")
	}

	property, err := s.repo.FindProperty(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if property.IsOwnedBy(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "You cannot book your own property")
	}
	now := s.now()
	if !visitDate.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Visit date must be in the future")
	}

	total := decimal.Zero
	if req.TotalPrice != nil {
		total = decimal.NewFromFloat(*req.TotalPrice).Round(2)
	}
	booking := &models.Booking{
		ID:         uuid.New(),
		PropertyID: property.ID,
		UserID:     userID,
		OwnerID:    property.OwnerID,
		VisitDate:  visitDate,
		VisitTime:  visitTime,
		Status:     enums.BookingStatusPending,
		Message:    strings.TrimSpace(req.Message),
		TotalPrice: total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		if db.IsUniqueViolation(err, bookingSlotConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "You already have a booking for this property at this time")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create booking")
	}
	return s.get(ctx, booking.ID)
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bookings")
	}
	return FromModels(rows), nil
}

func (s *service) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list owner bookings")
	}
	return FromModels(rows), nil
}

// UpdateStatus lets the property owner move the booking along.
func (s *service) UpdateStatus(ctx context.Context, ownerID, bookingID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error) {
	next, err := enums.ParseBookingStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking status")
	}
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to update this booking")
	}
	return s.transition(ctx, booking, next, strings.TrimSpace(req.Notes))
}

// Cancel lets the requester withdraw.
func (s *service) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*BookingDTO, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to cancel this booking")
	}
	return s.transition(ctx, booking, enums.BookingStatusCancelled, "")
}

func (s *service) Delete(ctx context.Context, userID, bookingID uuid.UUID) error {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to delete this booking")
	}
	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return notFoundOr(err, "delete booking")
	}
	return nil
}

func (s *service) AvailableSlots(ctx context.Context, propertyID uuid.UUID, date string) (Availability, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return Availability{}, pkgerrors.New(pkgerrors.CodeValidation, "Please provide a date")
	}
	day, err := ParseVisitDate(date)
	if err != nil {
		return Availability{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date")
	}
	booked, err := s.repo.BookedSlots(ctx, propertyID, day)
	if err != nil {
		return Availability{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booked slots")
	}
	return availability(booked), nil
}

func (s *service) transition(ctx context.Context, booking *models.Booking, next enums.BookingStatus, notes string) (*BookingDTO, error) {
	if !booking.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, next)).
			WithDetails(map[string]any{"from": booking.Status, "to": next})
	}

	now := s.now()
	updates := map[string]any{"status": next}
	switch next {
	case enums.BookingStatusConfirmed:
		updates["confirmed_at"] = now
	case enums.BookingStatusCancelled:
		updates["cancelled_at"] = now
	case enums.BookingStatusCompleted:
		updates["completed_at"] = now
	}
	if notes != "" {
		updates["notes"] = notes
	}
	if err := s.repo.Update(ctx, booking.ID, db.WithUpdatedTimestamp(updates, now)); err != nil {
		return nil, notFoundOr(err, "update booking")
	}
	return s.get(ctx, booking.ID)
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*BookingDTO, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(booking)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load booking")
	}
	return booking, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Booking not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
