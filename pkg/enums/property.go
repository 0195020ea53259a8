package enums

import "fmt"

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyTypeApartment PropertyType = "Apartment"
	PropertyTypeHouse     PropertyType = "House"
	PropertyTypeVilla     PropertyType = "Villa"
	PropertyTypeLand      PropertyType = "Land"
	PropertyTypeOffice    PropertyType = "Office"
	PropertyTypeStudio    PropertyType = "Studio"
)

var validPropertyTypes = []PropertyType{
	PropertyTypeApartment,
	PropertyTypeHouse,
	PropertyTypeVilla,
	PropertyTypeLand,
	PropertyTypeOffice,
	PropertyTypeStudio,
}

// String implements fmt.Stringer.
func (t PropertyType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PropertyType.
func (t PropertyType) IsValid() bool {
	for _, candidate := range validPropertyTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePropertyType converts raw input into a PropertyType.
func ParsePropertyType(value string) (PropertyType, error) {
	for _, candidate := range validPropertyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid property type %q", value)
}

// ListingStatus is whether a listing is offered for sale or rent.
type ListingStatus string

const (
	ListingStatusForSale ListingStatus = "For Sale"
	ListingStatusForRent ListingStatus = "For Rent"
)

func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	return s == ListingStatusForSale || s == ListingStatusForRent
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	s := ListingStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid listing status %q", value)
	}
	return s, nil
}
