// Package placestest provides in-memory implementations of the places ports
// for tests.
package placestest

import (
	"sync"
	"time"

	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/core/ports"
)

// Maps is a fake namespace. A nil Lib behaves like a namespace loaded without
// the places library.
type Maps struct {
	Lib      *Places
	Geocoder *Geocoder
}

// NewMaps returns a namespace whose autocomplete answers OK with results
func NewMaps(results ...models.Suggestion) *Maps {
	return &Maps{
		Lib: &Places{
			Autocomplete: NewAutocomplete(models.StatusOK, results...),
			Details:      &DetailsService{Status: models.StatusOK},
		},
		Geocoder: &Geocoder{Status: models.StatusOK},
	}
}

func (m *Maps) Places() ports.Places {
	if m.Lib == nil {
		return nil
	}
	return m.Lib
}

func (m *Maps) NewGeocoder() ports.Geocoder {
	if m.Geocoder == nil {
		return nil
	}
	return m.Geocoder
}

// Places hands out the same service instances on every call
type Places struct {
	Autocomplete *AutocompleteService
	Details      *DetailsService
}

func (p *Places) NewAutocompleteService() ports.AutocompleteService {
	return p.Autocomplete
}

func (p *Places) NewPlacesService() ports.DetailsService {
	return p.Details
}

// Call is one recorded autocomplete request
type Call struct {
	Request models.SuggestionRequest
	cb      ports.PredictionsCallback
	once    sync.Once
}

// Resolve completes the call; later calls are ignored
func (c *Call) Resolve(results []models.Suggestion, status string) {
	c.once.Do(func() {
		c.cb(results, status)
	})
}

// AutocompleteService answers with a fixed response. With Manual set, calls
// are held until resolved by the test; with Delay set they are answered from
// a timer goroutine; otherwise the callback runs synchronously.
type AutocompleteService struct {
	mu      sync.Mutex
	results []models.Suggestion
	status  string
	Delay   time.Duration
	Manual  bool
	calls   []*Call
}

func NewAutocomplete(status string, results ...models.Suggestion) *AutocompleteService {
	return &AutocompleteService{status: status, results: results}
}

func (s *AutocompleteService) SetResponse(status string, results ...models.Suggestion) {
	s.mu.Lock()
	s.status = status
	s.results = results
	s.mu.Unlock()
}

func (s *AutocompleteService) GetPlacePredictions(req models.SuggestionRequest, cb ports.PredictionsCallback) {
	s.mu.Lock()
	call := &Call{Request: req, cb: cb}
	s.calls = append(s.calls, call)
	// each call answers with its own slice, like a real service would
	results, status := append([]models.Suggestion(nil), s.results...), s.status
	manual, delay := s.Manual, s.Delay
	s.mu.Unlock()

	switch {
	case manual:
	case delay > 0:
		time.AfterFunc(delay, func() { call.Resolve(results, status) })
	default:
		call.Resolve(results, status)
	}
}

// Calls returns every request received so far
func (s *AutocompleteService) Calls() []*Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Call(nil), s.calls...)
}

// Inputs returns the input of every request received so far
func (s *AutocompleteService) Inputs() []string {
	calls := s.Calls()
	inputs := make([]string, len(calls))
	for i, c := range calls {
		inputs[i] = c.Request.Input
	}
	return inputs
}

// DetailsService answers every request synchronously
type DetailsService struct {
	mu       sync.Mutex
	Result   models.PlaceDetails
	Status   string
	requests []models.DetailsRequest
}

func (s *DetailsService) GetDetails(req models.DetailsRequest, cb ports.DetailsCallback) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	result, status := s.Result, s.Status
	s.mu.Unlock()

	if status != models.StatusOK {
		result = nil
	}
	cb(result, status)
}

func (s *DetailsService) Requests() []models.DetailsRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DetailsRequest(nil), s.requests...)
}

// Geocoder answers every request synchronously
type Geocoder struct {
	mu       sync.Mutex
	Results  []models.GeocodeResult
	Status   string
	requests []models.GeocodeRequest
}

func (g *Geocoder) Geocode(req models.GeocodeRequest, cb ports.GeocodeCallback) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	results, status := g.Results, g.Status
	g.mu.Unlock()

	if status != models.StatusOK {
		results = nil
	}
	cb(results, status)
}

func (g *Geocoder) Requests() []models.GeocodeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.GeocodeRequest(nil), g.requests...)
}
