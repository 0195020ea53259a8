package favorites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

// FavoriteDTO is one liked property.
type FavoriteDTO struct {
	ID         uuid.UUID               `json:"id"`
	PropertyID uuid.UUID               `json:"propertyId"`
	Property   *properties.PropertyDTO `json:"property,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// Service exposes the favorites list of a user.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error)
	Check(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	Add(ctx context.Context, userID, propertyID uuid.UUID) (*FavoriteDTO, error)
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
}

type favoriteRepository interface {
	Add(ctx context.Context, userID, propertyID uuid.UUID, now time.Time) (*models.Favorite, error)
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
	Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
	PropertyExists(ctx context.Context, propertyID uuid.UUID) (bool, error)
}

type ServiceParams struct {
	Repo favoriteRepository
	Now  func() time.Time
}

type service struct {
	repo favoriteRepository
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("favorites repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, now: now}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list favorites")
	}
	out := make([]FavoriteDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Check(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, userID, propertyID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check favorite")
	}
	return ok, nil
}

// Add likes an existing property once.
func (s *service) Add(ctx context.Context, userID, propertyID uuid.UUID) (*FavoriteDTO, error) {
	exists, err := s.repo.PropertyExists(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")
	}
	fav, err := s.repo.Add(ctx, userID, propertyID, s.now())
	if err != nil {
		if db.IsUniqueViolation(err, favoriteUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Property already in favorites")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add favorite")
	}
	dto := toDTO(fav)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Favorite not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove favorite")
	}
	return nil
}

func toDTO(f *models.Favorite) FavoriteDTO {
	return FavoriteDTO{
		ID:         f.ID,
		PropertyID: f.PropertyID,
		Property:   properties.FromModel(f.Property),
		CreatedAt:  f.CreatedAt,
	}
}
