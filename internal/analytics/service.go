// Package analytics reports listing performance to property owners.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/internal/bookings"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

type ListingAnalytics struct {
	TotalProperties int64   `json:"totalProperties"`
	TotalViews      int64   `json:"totalViews"`
	TotalBookings   int64   `json:"totalBookings"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

type PropertyAnalytics struct {
	Views         int64                 `json:"views"`
	TotalBookings int64                 `json:"totalBookings"`
	TotalRevenue  float64               `json:"totalRevenue"`
	Bookings      []bookings.BookingDTO `json:"bookings"`
}

// Service computes owner-facing totals on demand.
type Service interface {
	Listings(ctx context.Context, ownerID uuid.UUID) (*ListingAnalytics, error)
	Property(ctx context.Context, ownerID, propertyID uuid.UUID) (*PropertyAnalytics, error)
}

type analyticsRepository interface {
	OwnerListingTotals(ctx context.Context, ownerID uuid.UUID) (ListingTotals, error)
	OwnerConfirmedTotals(ctx context.Context, ownerID uuid.UUID) ([]decimal.Decimal, error)
	FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ConfirmedBookings(ctx context.Context, propertyID uuid.UUID) ([]models.Booking, error)
}

type service struct {
	repo analyticsRepository
}

func NewService(repo analyticsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Listings(ctx context.Context, ownerID uuid.UUID) (*ListingAnalytics, error) {
	agg, err := s.repo.OwnerListingTotals(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate listings")
	}
	totals, err := s.repo.OwnerConfirmedTotals(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate bookings")
	}
	return &ListingAnalytics{
		TotalProperties: agg.Properties,
		TotalViews:      agg.Views,
		TotalBookings:   int64(len(totals)),
		TotalRevenue:    sum(totals),
	}, nil
}

// Property reports a single listing. Only its owner may read it.
func (s *service) Property(ctx context.Context, ownerID, propertyID uuid.UUID) (*PropertyAnalytics, error) {
	property, err := s.repo.FindProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if property.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized")
	}

	rows, err := s.repo.ConfirmedBookings(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list confirmed bookings")
	}
	totals := make([]decimal.Decimal, 0, len(rows))
	for _, b := range rows {
		totals = append(totals, b.TotalPrice)
	}
	return &PropertyAnalytics{
		Views:         property.Views,
		TotalBookings: int64(len(rows)),
		TotalRevenue:  sum(totals),
		Bookings:      bookings.FromModels(rows),
	}, nil
}

func sum(values []decimal.Decimal) float64 {
	total := decimal.Sum(decimal.Zero, values...)
	f, _ := total.Round(2).Float64()
	return f
}
