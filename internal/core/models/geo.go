package models

// LatLng is a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AddressComponent is one part of a structured address
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Geometry holds the location of a geocoding result
type Geometry struct {
	Location     LatLng `json:"location"`
	LocationType string `json:"location_type,omitempty"`
}

// GeocodeResult is a single result of a geocode lookup
type GeocodeResult struct {
	PlaceID           string             `json:"place_id"`
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []AddressComponent `json:"address_components"`
	Geometry          Geometry           `json:"geometry"`
	Types             []string           `json:"types"`
}

// ComponentRestrictions filters geocoding results by address component
type ComponentRestrictions struct {
	Country            string
	PostalCode         string
	AdministrativeArea string
	Locality           string
	Route              string
}

// IsZero reports whether no restriction is set
func (c ComponentRestrictions) IsZero() bool {
	return c == ComponentRestrictions{}
}

// GeocodeRequest describes a geocode lookup. Address and PlaceID are
// alternatives; Location enables reverse geocoding.
type GeocodeRequest struct {
	Address               string
	PlaceID               string
	Location              *LatLng
	ComponentRestrictions ComponentRestrictions
	Region                string
	Language              string
}

// DetailsRequest describes a place details lookup
type DetailsRequest struct {
	PlaceID      string
	Fields       []string
	SessionToken string
	Language     string
	Region       string
}

// PlaceDetails is the opaque result of a details lookup
type PlaceDetails map[string]interface{}
