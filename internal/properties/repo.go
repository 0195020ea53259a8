package properties

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/pagination"
)

const earthRadiusKm = 6371.0

// Repository exposes listing persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *models.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID loads a listing together with its owner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).Preload("Owner").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementViews bumps the view counter in place.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Search returns one page of available listings matching every filter,
// newest first, plus the total match count.
func (r *Repository) Search(ctx context.Context, f Filters, p pagination.Params) ([]models.Property, int64, error) {
	p = p.Normalize()
	scoped := func() *gorm.DB {
		return applyFilters(r.db.WithContext(ctx).Model(&models.Property{}), f)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Property
	err := scoped().Preload("Owner").
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Nearby applies a square box of radiusKm/6371 on both axes. Bounds are
// inclusive.
func (r *Repository) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Property, error) {
	delta := radiusKm / earthRadiusKm
	var rows []models.Property
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("is_available = ?", true).
		Where("latitude BETWEEN ? AND ?", lat-delta, lat+delta).
		Where("longitude BETWEEN ? AND ?", lng-delta, lng+delta).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	var rows []models.Property
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MatchSavedFilters lists listings matching stored saved-search criteria,
// newest first. Availability is not part of the criteria.
func (r *Repository) MatchSavedFilters(ctx context.Context, f models.SearchFilters, limit int) ([]models.Property, error) {
	query := r.db.WithContext(ctx).Model(&models.Property{})
	if f.Type != "" {
		query = query.Where("property_type = ?", f.Type)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinArea != nil {
		query = query.Where("area >= ?", *f.MinArea)
	}
	if f.MaxArea != nil {
		query = query.Where("area <= ?", *f.MaxArea)
	}
	if f.Bedrooms != nil {
		query = query.Where("bedrooms >= ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		query = query.Where("bathrooms >= ?", *f.Bathrooms)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		query = query.Where(`LOWER(city) LIKE ? ESCAPE '\'`, likePattern(city))
	}
	if len(f.Amenities) > 0 {
		query = r.withAmenities(query, f.Amenities)
	}

	var rows []models.Property
	if err := query.Preload("Owner").Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// withAmenities requires every listed amenity to be present.
func (r *Repository) withAmenities(query *gorm.DB, amenities []string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Where("amenities @> ?::jsonb", jsonArray(amenities))
	}
	for _, amenity := range amenities {
		query = query.Where(
			"EXISTS (SELECT 1 FROM json_each(CAST(properties.amenities AS TEXT)) WHERE json_each.value = ?)",
			amenity,
		)
	}
	return query
}

func applyFilters(query *gorm.DB, f Filters) *gorm.DB {
	query = query.Where("is_available = ?", true)
	if f.PropertyType != "" {
		query = query.Where("property_type = ?", f.PropertyType)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		query = query.Where(`LOWER(city) LIKE ? ESCAPE '\'`, likePattern(city))
	}
	if f.Bedrooms != nil {
		query = query.Where("bedrooms >= ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		query = query.Where("bathrooms >= ?", *f.Bathrooms)
	}
	if text := strings.TrimSpace(f.Search); text != "" {
		pattern := likePattern(text)
		query = query.Where(
			`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\' OR LOWER(address) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}

func jsonArray(values []string) string {
	raw, _ := json.Marshal(values)
	return string(raw)
}
