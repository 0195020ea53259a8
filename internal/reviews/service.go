package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

// Service manages property reviews and keeps each listing's rating
// aggregate in step with its reviews.
type Service interface {
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]ReviewDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]ReviewDTO, error)
	Create(ctx context.Context, userID, propertyID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, req UpdateReviewRequest) (*ReviewDTO, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
	RecomputePropertyRating(ctx context.Context, propertyID uuid.UUID) error
}

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error)
	PropertyExists(ctx context.Context, propertyID uuid.UUID) (bool, error)
	RecomputeRating(ctx context.Context, propertyID uuid.UUID) error
}

type ServiceParams struct {
	Repo   reviewRepository
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo reviewRepository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, logg: params.Logger, now: now}, nil
}

func (s *service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return fromModels(rows), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list my reviews")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, userID, propertyID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}
	exists, err := s.repo.PropertyExists(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")
	}

	now := s.now()
	review := &models.Review{
		ID:         uuid.New(),
		PropertyID: propertyID,
		UserID:     userID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, reviewUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "You have already reviewed this property")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	if err := s.RecomputePropertyRating(ctx, propertyID); err != nil {
		return nil, err
	}
	return s.get(ctx, review.ID)
}

func (s *service) Update(ctx context.Context, userID, reviewID uuid.UUID, req UpdateReviewRequest) (*ReviewDTO, error) {
	review, err := s.loadOwn(ctx, userID, reviewID, "update")
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = strings.TrimSpace(*req.Comment)
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, reviewID, db.WithUpdatedTimestamp(updates, s.now())); err != nil {
			return nil, notFoundOr(err, "update review")
		}
		if err := s.RecomputePropertyRating(ctx, review.PropertyID); err != nil {
			return nil, err
		}
	}
	return s.get(ctx, reviewID)
}

func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	review, err := s.loadOwn(ctx, userID, reviewID, "delete")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return notFoundOr(err, "delete review")
	}
	return s.RecomputePropertyRating(ctx, review.PropertyID)
}

// RecomputePropertyRating runs after the review write has committed, so a
// failure here leaves a stale aggregate until the next write.
func (s *service) RecomputePropertyRating(ctx context.Context, propertyID uuid.UUID) error {
	if err := s.repo.RecomputeRating(ctx, propertyID); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "property_id", propertyID.String()), "reviews.recompute_failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recompute property rating")
	}
	return nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load review")
	}
	dto := FromModel(review)
	return &dto, nil
}

func (s *service) loadOwn(ctx context.Context, userID, reviewID uuid.UUID, action string) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, notFoundOr(err, "load review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized to "+action+" this review")
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Review not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
