package savedsearches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

// MatchLimit caps the listings returned for one saved search.
const MatchLimit = 20

// Service manages a user's saved searches.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]SavedSearchDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*SavedSearchDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateRequest) (*SavedSearchDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	MatchingProperties(ctx context.Context, userID, id uuid.UUID) ([]properties.PropertyDTO, error)
}

type searchRepository interface {
	Create(ctx context.Context, s *models.SavedSearch) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedSearch, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyMatcher interface {
	MatchSavedFilters(ctx context.Context, f models.SearchFilters, limit int) ([]models.Property, error)
}

type ServiceParams struct {
	Repo       searchRepository
	Properties propertyMatcher
	Now        func() time.Time
}

type service struct {
	repo       searchRepository
	properties propertyMatcher
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("saved search repository is required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("property matcher is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, properties: params.Properties, now: now}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]SavedSearchDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list saved searches")
	}
	out := make([]SavedSearchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*SavedSearchDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Search name is required")
	}
	if err := validateFilters(req.Filters); err != nil {
		return nil, err
	}
	enabled := true
	if req.NotificationsEnabled != nil {
		enabled = *req.NotificationsEnabled
	}
	now := s.now()
	search := &models.SavedSearch{
		ID:                   uuid.New(),
		UserID:               userID,
		Name:                 name,
		Filters:              datatypes.NewJSONType(req.Filters),
		NotificationsEnabled: enabled,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(ctx, search); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create saved search")
	}
	dto := FromModel(search)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateRequest) (*SavedSearchDTO, error) {
	if _, err := s.loadOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Search name is required")
		}
		updates["name"] = name
	}
	if req.Filters != nil {
		if err := validateFilters(*req.Filters); err != nil {
			return nil, err
		}
		updates["filters"] = datatypes.NewJSONType(*req.Filters)
	}
	if req.NotificationsEnabled != nil {
		updates["notifications_enabled"] = *req.NotificationsEnabled
	}
	if err := s.repo.Update(ctx, id, db.WithUpdatedTimestamp(updates, s.now())); err != nil {
		return nil, notFoundOr(err, "update saved search")
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load saved search")
	}
	dto := FromModel(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "delete saved search")
	}
	return nil
}

// MatchingProperties lists the newest listings satisfying the stored filters.
func (s *service) MatchingProperties(ctx context.Context, userID, id uuid.UUID) ([]properties.PropertyDTO, error) {
	search, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.properties.MatchSavedFilters(ctx, search.Filters.Data(), MatchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "match saved search")
	}
	return properties.FromModels(rows), nil
}

func (s *service) loadOwned(ctx context.Context, userID, id uuid.UUID) (*models.SavedSearch, error) {
	search, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load saved search")
	}
	if search.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to access this search")
	}
	return search, nil
}

func validateFilters(f models.SearchFilters) error {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	if f.MinArea != nil && f.MaxArea != nil && *f.MinArea > *f.MaxArea {
		return pkgerrors.New(pkgerrors.CodeValidation, "minArea cannot exceed maxArea")
	}
	return nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Saved search not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
