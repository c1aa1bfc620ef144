package ports

import "github.com/genc-murat/crystalplaces/internal/core/models"

// PredictionsCallback receives the outcome of one autocomplete call
type PredictionsCallback func(predictions []models.Suggestion, status string)

// DetailsCallback receives the outcome of one details call
type DetailsCallback func(details models.PlaceDetails, status string)

// GeocodeCallback receives the outcome of one geocode call
type GeocodeCallback func(results []models.GeocodeResult, status string)

// AutocompleteService issues prediction requests. The callback may run on any
// goroutine and is invoked exactly once per request.
type AutocompleteService interface {
	GetPlacePredictions(req models.SuggestionRequest, cb PredictionsCallback)
}

// DetailsService looks up a single place
type DetailsService interface {
	GetDetails(req models.DetailsRequest, cb DetailsCallback)
}

// Geocoder resolves addresses and place ids to coordinates
type Geocoder interface {
	Geocode(req models.GeocodeRequest, cb GeocodeCallback)
}

// Places is the places library of the maps namespace
type Places interface {
	NewAutocompleteService() AutocompleteService
	NewPlacesService() DetailsService
}

// Maps is the loaded maps namespace. Places returns nil while the places
// library is not available.
type Maps interface {
	Places() Places
	NewGeocoder() Geocoder
}
