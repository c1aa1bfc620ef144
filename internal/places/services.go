package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/core/ports"
)

const (
	autocompletePath = "/place/autocomplete/json"
	detailsPath      = "/place/details/json"
	geocodePath      = "/geocode/json"
)

// Places returns the places library; the web services always provide it
func (c *Client) Places() ports.Places {
	return placesLibrary{client: c}
}

func (c *Client) NewGeocoder() ports.Geocoder {
	return &geocoder{client: c}
}

type placesLibrary struct {
	client *Client
}

func (p placesLibrary) NewAutocompleteService() ports.AutocompleteService {
	svc := &autocompleteService{client: p.client}
	if p.client.sessionTokens {
		svc.sessionToken = uuid.NewString()
	}
	return svc
}

func (p placesLibrary) NewPlacesService() ports.DetailsService {
	return &detailsService{client: p.client}
}

type autocompleteService struct {
	client       *Client
	sessionToken string
}

// GetPlacePredictions answers on a separate goroutine
func (s *autocompleteService) GetPlacePredictions(req models.SuggestionRequest, cb ports.PredictionsCallback) {
	params := encodeParams(req.Params())
	if s.sessionToken != "" && params.Get("sessiontoken") == "" {
		params.Set("sessiontoken", s.sessionToken)
	}

	go func() {
		cb(s.client.autocomplete(s.client.ctx, params))
	}()
}

func (c *Client) autocomplete(ctx context.Context, params url.Values) ([]models.Suggestion, string) {
	body, err := c.get(ctx, autocompletePath, params)
	if err != nil {
		c.logger.Warn().Err(err).Str("input", params.Get("input")).Msg("Autocomplete request failed")
		return nil, models.StatusUnknownError
	}

	status := gjson.GetBytes(body, "status").String()
	if status != models.StatusOK {
		c.logger.Debug().
			Str("status", status).
			Str("error_message", gjson.GetBytes(body, "error_message").String()).
			Msg("Autocomplete returned no predictions")
		return nil, status
	}

	predictions := gjson.GetBytes(body, "predictions").Array()
	suggestions := make([]models.Suggestion, 0, len(predictions))
	for _, p := range predictions {
		if m, ok := p.Value().(map[string]interface{}); ok {
			suggestions = append(suggestions, models.Suggestion(m))
		}
	}

	c.logger.Debug().
		Str("input", params.Get("input")).
		Int("results_count", len(suggestions)).
		Msg("Autocomplete completed")

	return suggestions, status
}

type detailsService struct {
	client *Client
}

func (s *detailsService) GetDetails(req models.DetailsRequest, cb ports.DetailsCallback) {
	params := url.Values{}
	params.Set("place_id", req.PlaceID)
	if len(req.Fields) > 0 {
		params.Set("fields", strings.Join(req.Fields, ","))
	}
	setIfNotEmpty(params, "sessiontoken", req.SessionToken)
	setIfNotEmpty(params, "language", req.Language)
	setIfNotEmpty(params, "region", req.Region)

	go func() {
		cb(s.client.details(s.client.ctx, params))
	}()
}

func (c *Client) details(ctx context.Context, params url.Values) (models.PlaceDetails, string) {
	body, err := c.get(ctx, detailsPath, params)
	if err != nil {
		c.logger.Warn().Err(err).Str("place_id", params.Get("place_id")).Msg("Place details request failed")
		return nil, models.StatusUnknownError
	}

	status := gjson.GetBytes(body, "status").String()
	if status != models.StatusOK {
		return nil, status
	}

	result, ok := gjson.GetBytes(body, "result").Value().(map[string]interface{})
	if !ok {
		return nil, models.StatusUnknownError
	}
	return models.PlaceDetails(result), status
}

type geocoder struct {
	client *Client
}

func (g *geocoder) Geocode(req models.GeocodeRequest, cb ports.GeocodeCallback) {
	params := url.Values{}
	setIfNotEmpty(params, "address", req.Address)
	setIfNotEmpty(params, "place_id", req.PlaceID)
	if req.Location != nil {
		params.Set("latlng", formatLatLng(*req.Location))
	}
	if components := encodeComponents(req.ComponentRestrictions); components != "" {
		params.Set("components", components)
	}
	setIfNotEmpty(params, "region", req.Region)
	setIfNotEmpty(params, "language", req.Language)

	go func() {
		cb(g.client.geocode(g.client.ctx, params))
	}()
}

func (c *Client) geocode(ctx context.Context, params url.Values) ([]models.GeocodeResult, string) {
	body, err := c.get(ctx, geocodePath, params)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Geocode request failed")
		return nil, models.StatusUnknownError
	}

	status := gjson.GetBytes(body, "status").String()
	if status != models.StatusOK {
		return nil, status
	}

	var results []models.GeocodeResult
	if err := json.Unmarshal([]byte(gjson.GetBytes(body, "results").Raw), &results); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to decode geocode results")
		return nil, models.StatusUnknownError
	}
	return results, status
}

// paramNames maps request option names to web service parameter names
var paramNames = map[string]string{
	"componentRestrictions": "components",
	"sessionToken":          "sessiontoken",
	"strictBounds":          "strictbounds",
	"locationBias":          "locationbias",
	"locationRestriction":   "locationrestriction",
}

func encodeParams(fields map[string]interface{}) url.Values {
	params := url.Values{}
	for name, value := range fields {
		if mapped, ok := paramNames[name]; ok {
			name = mapped
		}
		if encoded := encodeValue(name, value); encoded != "" {
			params.Set(name, encoded)
		}
	}
	return params
}

func encodeValue(name string, value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "|")
	case []interface{}:
		// lists decoded from yaml or json
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "|")
	case models.LatLng:
		return formatLatLng(v)
	case *models.LatLng:
		if v == nil {
			return ""
		}
		return formatLatLng(*v)
	case map[string]interface{}:
		if name == "components" {
			return encodeComponentMap(v)
		}
		return encodeJSON(v)
	case map[string]string:
		if name == "components" {
			m := make(map[string]interface{}, len(v))
			for k, s := range v {
				m[k] = s
			}
			return encodeComponentMap(m)
		}
		return encodeJSON(v)
	}
	return fmt.Sprint(value)
}

// encodeJSON serializes structured values the web services have no flat
// form for; an unserializable value is dropped.
func encodeJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

// encodeComponentMap turns {"country": ["tw", "jp"]} into country:tw|country:jp
func encodeComponentMap(m map[string]interface{}) string {
	var parts []string
	for _, key := range sortedKeys(m) {
		switch v := m[key].(type) {
		case []string:
			for _, s := range v {
				parts = append(parts, key+":"+s)
			}
		case []interface{}:
			for _, s := range v {
				parts = append(parts, fmt.Sprintf("%s:%v", key, s))
			}
		default:
			parts = append(parts, fmt.Sprintf("%s:%v", key, v))
		}
	}
	return strings.Join(parts, "|")
}

func encodeComponents(r models.ComponentRestrictions) string {
	var parts []string
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, name+":"+value)
		}
	}
	add("country", r.Country)
	add("postal_code", r.PostalCode)
	add("administrative_area", r.AdministrativeArea)
	add("locality", r.Locality)
	add("route", r.Route)
	return strings.Join(parts, "|")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatLatLng(l models.LatLng) string {
	return fmt.Sprintf("%g,%g", l.Lat, l.Lng)
}

func setIfNotEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
