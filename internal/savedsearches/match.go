package savedsearches

import (
	"strings"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
)

// MatchesFilters applies the stored criteria to a single listing. It mirrors
// the repository query used to list matching properties. Furnished, parking
// and pets are kept with the search but listings carry no such attributes,
// so they never exclude anything.
func MatchesFilters(f models.SearchFilters, p *models.Property) bool {
	if p == nil {
		return false
	}
	if f.Type != "" && string(p.PropertyType) != f.Type {
		return false
	}
	if f.Status != "" && string(p.Status) != f.Status {
		return false
	}
	price, _ := p.Price.Float64()
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}
	if f.MinArea != nil && p.Area < *f.MinArea {
		return false
	}
	if f.MaxArea != nil && p.Area > *f.MaxArea {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms < *f.Bedrooms {
		return false
	}
	if f.Bathrooms != nil && p.Bathrooms < *f.Bathrooms {
		return false
	}
	if city := strings.TrimSpace(f.City); city != "" &&
		!strings.Contains(strings.ToLower(p.City), strings.ToLower(city)) {
		return false
	}
	if len(f.Amenities) > 0 {
		have := make(map[string]struct{}, len(p.Amenities))
		for _, a := range p.Amenities {
			have[a] = struct{}{}
		}
		for _, want := range f.Amenities {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	return true
}
