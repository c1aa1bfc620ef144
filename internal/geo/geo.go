// Package geo wraps single geocode and place details calls of the maps
// namespace into plain (result, error) functions.
package geo

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/core/ports"
)

type geocodeOutcome struct {
	results []models.GeocodeResult
	status  string
}

type detailsOutcome struct {
	details models.PlaceDetails
	status  string
}

// GetGeocode runs one geocode lookup. Component restrictions without an
// address are logged as a warning but still sent.
func GetGeocode(ctx context.Context, maps ports.Maps, req models.GeocodeRequest, logger arbor.ILogger) ([]models.GeocodeResult, error) {
	geocoder := newGeocoder(maps)
	if geocoder == nil {
		return nil, models.ErrPlacesNotLoaded
	}

	if !req.ComponentRestrictions.IsZero() && req.Address == "" && logger != nil {
		logger.Warn().Err(models.ErrAddressRequired).Msg("Geocode request has component restrictions but no address")
	}

	done := make(chan geocodeOutcome, 1)
	geocoder.Geocode(req, func(results []models.GeocodeResult, status string) {
		done <- geocodeOutcome{results: results, status: status}
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("geocode: %w", ctx.Err())
	case out := <-done:
		if out.status != models.StatusOK {
			return nil, &models.RequestError{Op: "geocode", Status: out.status}
		}
		return out.results, nil
	}
}

func newGeocoder(maps ports.Maps) ports.Geocoder {
	if maps == nil {
		return nil
	}
	return maps.NewGeocoder()
}

// GetLatLng returns the coordinates of a geocoding result
func GetLatLng(result models.GeocodeResult) models.LatLng {
	return result.Geometry.Location
}

// GetZipCode returns the postal code component of a geocoding result
func GetZipCode(result models.GeocodeResult, useShortName bool) (string, bool) {
	for _, component := range result.AddressComponents {
		for _, t := range component.Types {
			if t != "postal_code" {
				continue
			}
			if useShortName {
				return component.ShortName, true
			}
			return component.LongName, true
		}
	}
	return "", false
}

// DetailsRequestFor builds a details request for a prediction
func DetailsRequestFor(s models.Suggestion, fields ...string) models.DetailsRequest {
	return models.DetailsRequest{PlaceID: s.PlaceID(), Fields: fields}
}

// GetDetails runs one place details lookup. A request without a place id is
// rejected before any call is made.
func GetDetails(ctx context.Context, maps ports.Maps, req models.DetailsRequest, logger arbor.ILogger) (models.PlaceDetails, error) {
	if req.PlaceID == "" {
		err := &models.ValidationError{Field: "place_id", Err: models.ErrMissingPlaceID}
		if logger != nil {
			logger.Error().Err(err).Msg("Place details request rejected")
		}
		return nil, err
	}

	if maps == nil || maps.Places() == nil {
		return nil, models.ErrPlacesNotLoaded
	}
	service := maps.Places().NewPlacesService()

	done := make(chan detailsOutcome, 1)
	service.GetDetails(req, func(details models.PlaceDetails, status string) {
		done <- detailsOutcome{details: details, status: status}
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("place details: %w", ctx.Err())
	case out := <-done:
		if out.status != models.StatusOK {
			return nil, &models.RequestError{Op: "place details", Status: out.status}
		}
		return out.details, nil
	}
}
