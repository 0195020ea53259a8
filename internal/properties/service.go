package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/pagination"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

// DefaultNearbyRadiusKm applies when the caller gives no distance.
const DefaultNearbyRadiusKm = 10.0

// Service manages listings.
type Service interface {
	Search(ctx context.Context, f Filters, p pagination.Params) (pagination.Result[PropertyDTO], error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]PropertyDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*PropertyDTO, error)
	Create(ctx context.Context, ownerID uuid.UUID, req CreatePropertyRequest, images []storage.Upload) (*PropertyDTO, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdatePropertyRequest, images []storage.Upload) (*PropertyDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]PropertyDTO, error)
	AddImages(ctx context.Context, actor Actor, id uuid.UUID, images []storage.Upload) (*PropertyDTO, error)
	RemoveImage(ctx context.Context, actor Actor, id uuid.UUID, name string) (*PropertyDTO, error)
}

// CreatedHook is told about every new listing. Its failures never fail the
// create.
type CreatedHook interface {
	PropertyCreated(ctx context.Context, propertyID uuid.UUID) error
}

type propertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filters, p pagination.Params) ([]models.Property, int64, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Property, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error)
}

type ServiceParams struct {
	Repo           propertyRepository
	Storage        storage.Store
	MaxUploadBytes int64
	OnCreated      CreatedHook
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	repo      propertyRepository
	store     storage.Store
	maxUpload int64
	onCreated CreatedHook
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("property repository is required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("file storage is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		store:     params.Storage,
		maxUpload: params.MaxUploadBytes,
		onCreated: params.OnCreated,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Search(ctx context.Context, f Filters, p pagination.Params) (pagination.Result[PropertyDTO], error) {
	p = p.Normalize()
	rows, total, err := s.repo.Search(ctx, f, p)
	if err != nil {
		return pagination.Result[PropertyDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search properties")
	}
	return pagination.NewResult(FromModels(rows), total, p), nil
}

func (s *service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]PropertyDTO, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
	}
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	rows, err := s.repo.Nearby(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "nearby properties")
	}
	return FromModels(rows), nil
}

// Get counts a view before loading the listing.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*PropertyDTO, error) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, notFoundOr(err, "increment views")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(p), nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, req CreatePropertyRequest, images []storage.Upload) (*PropertyDTO, error) {
	propertyType, err := enums.ParsePropertyType(strings.TrimSpace(req.PropertyType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property type")
	}
	status, err := enums.ParseListingStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing status")
	}
	if len(images) > models.MaxPropertyImages {
		return nil, tooManyImages()
	}

	names, err := s.saveImages(ctx, images)
	if err != nil {
		return nil, err
	}

	now := s.now()
	country := strings.TrimSpace(req.Location.Country)
	if country == "" {
		country = models.DefaultCountry
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	p := &models.Property{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Price:        decimal.NewFromFloat(req.Price).Round(2),
		PropertyType: propertyType,
		Status:       status,
		Area:         req.Area,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Address:      strings.TrimSpace(req.Location.Address),
		City:         strings.TrimSpace(req.Location.City),
		State:        strings.TrimSpace(req.Location.State),
		Country:      country,
		ZipCode:      strings.TrimSpace(req.Location.ZipCode),
		Latitude:     req.Location.Coordinates.Latitude,
		Longitude:    req.Location.Coordinates.Longitude,
		Images:       datatypes.JSONSlice[string](names),
		Amenities:    datatypes.JSONSlice[string](cleanAmenities(req.Amenities)),
		IsAvailable:  available,
		Featured:     req.Featured,
		OwnerID:      ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.discard(ctx, names)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create property")
	}

	if s.onCreated != nil {
		if err := s.onCreated.PropertyCreated(ctx, p.ID); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "property_id", p.ID.String()), "properties.created_hook_failed", err)
		}
	}

	created, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

// Update changes the provided fields. Uploaded images are appended to the
// existing list.
func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdatePropertyRequest, images []storage.Upload) (*PropertyDTO, error) {
	p, err := s.loadManaged(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}

	updates, err := updateColumns(req)
	if err != nil {
		return nil, err
	}
	var added []string
	if len(images) > 0 {
		if len(p.Images)+len(images) > models.MaxPropertyImages {
			return nil, tooManyImages()
		}
		if added, err = s.saveImages(ctx, images); err != nil {
			return nil, err
		}
		updates["images"] = datatypes.JSONSlice[string](append(append([]string{}, p.Images...), added...))
	}
	if len(updates) == 0 {
		return FromModel(p), nil
	}

	if err := s.repo.Update(ctx, id, db.WithUpdatedTimestamp(updates, s.now())); err != nil {
		s.discard(ctx, added)
		return nil, notFoundOr(err, "update property")
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// Delete removes the listing and then its stored images.
func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.loadManaged(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "delete property")
	}
	s.discard(ctx, p.Images)
	return nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]PropertyDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list owner properties")
	}
	return FromModels(rows), nil
}

func (s *service) AddImages(ctx context.Context, actor Actor, id uuid.UUID, images []storage.Upload) (*PropertyDTO, error) {
	if len(images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	return s.Update(ctx, actor, id, UpdatePropertyRequest{}, images)
}

func (s *service) RemoveImage(ctx context.Context, actor Actor, id uuid.UUID, name string) (*PropertyDTO, error) {
	if !storage.SafeName(name) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid image name")
	}
	p, err := s.loadManaged(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(p.Images))
	found := false
	for _, image := range p.Images {
		if image == name {
			found = true
			continue
		}
		remaining = append(remaining, image)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Image not found")
	}

	updates := db.WithUpdatedTimestamp(map[string]any{"images": datatypes.JSONSlice[string](remaining)}, s.now())
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, notFoundOr(err, "remove image")
	}
	s.discard(ctx, []string{name})

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load property")
	}
	return p, nil
}

func (s *service) loadManaged(ctx context.Context, actor Actor, id uuid.UUID, action string) (*models.Property, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(p) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized to "+action+" this property")
	}
	return p, nil
}

// saveImages stores every upload or none of them.
func (s *service) saveImages(ctx context.Context, images []storage.Upload) ([]string, error) {
	names := make([]string, 0, len(images))
	for _, up := range images {
		name, err := storage.SaveImage(ctx, s.store, "property", up, s.maxUpload)
		if err != nil {
			s.discard(ctx, names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *service) discard(ctx context.Context, names []string) {
	for _, name := range names {
		if err := s.store.Delete(ctx, name); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "file", name), "properties.image.cleanup_failed")
		}
	}
}

func updateColumns(req UpdatePropertyRequest) (map[string]any, error) {
	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		updates["price"] = decimal.NewFromFloat(*req.Price).Round(2)
	}
	if req.PropertyType != nil {
		t, err := enums.ParsePropertyType(strings.TrimSpace(*req.PropertyType))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property type")
		}
		updates["property_type"] = t
	}
	if req.Status != nil {
		st, err := enums.ParseListingStatus(strings.TrimSpace(*req.Status))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing status")
		}
		updates["status"] = st
	}
	if req.Area != nil {
		updates["area"] = *req.Area
	}
	if req.Bedrooms != nil {
		updates["bedrooms"] = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		updates["bathrooms"] = *req.Bathrooms
	}
	if loc := req.Location; loc != nil {
		country := strings.TrimSpace(loc.Country)
		if country == "" {
			country = models.DefaultCountry
		}
		updates["address"] = strings.TrimSpace(loc.Address)
		updates["city"] = strings.TrimSpace(loc.City)
		updates["state"] = strings.TrimSpace(loc.State)
		updates["country"] = country
		updates["zip_code"] = strings.TrimSpace(loc.ZipCode)
		updates["latitude"] = loc.Coordinates.Latitude
		updates["longitude"] = loc.Coordinates.Longitude
	}
	if req.Amenities != nil {
		updates["amenities"] = datatypes.JSONSlice[string](cleanAmenities(req.Amenities))
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	return updates, nil
}

func cleanAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func tooManyImages() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("A property can have at most %d images", models.MaxPropertyImages))
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
