package models

// Suggestion represents a single autocomplete prediction returned by the
// places service. The payload is passed through as-is.
type Suggestion map[string]interface{}

// PlaceID returns the place_id field of the prediction, if present
func (s Suggestion) PlaceID() string {
	id, _ := s["place_id"].(string)
	return id
}

// Description returns the human readable text of the prediction
func (s Suggestion) Description() string {
	d, _ := s["description"].(string)
	return d
}

// Status codes reported by the places service
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusUnknownError   = "UNKNOWN_ERROR"
	StatusNotFound       = "NOT_FOUND"
)

// SuggestionState is the observable output of a coordinator.
// Loading implies an empty Status and no Data.
type SuggestionState struct {
	Loading bool
	Status  string
	Data    []Suggestion
}

// DefaultSuggestionState returns the idle state with no suggestions
func DefaultSuggestionState() SuggestionState {
	return SuggestionState{Data: []Suggestion{}}
}

// LoadingSuggestionState returns the state shown while a request is pending
func LoadingSuggestionState() SuggestionState {
	return SuggestionState{Loading: true, Data: []Suggestion{}}
}

// ReservedInputKey is the request field carrying the typed text
const ReservedInputKey = "input"

// SuggestionRequest is the payload sent to the autocomplete service
type SuggestionRequest struct {
	Input   string
	Options map[string]interface{}
}

// NewSuggestionRequest copies opts and binds input to it. An "input" entry in
// opts is ignored.
func NewSuggestionRequest(input string, opts map[string]interface{}) SuggestionRequest {
	copied := make(map[string]interface{}, len(opts))
	for k, v := range opts {
		if k == ReservedInputKey {
			continue
		}
		copied[k] = v
	}
	return SuggestionRequest{Input: input, Options: copied}
}

// Params returns the merged request fields with input set last
func (r SuggestionRequest) Params() map[string]interface{} {
	params := make(map[string]interface{}, len(r.Options)+1)
	for k, v := range r.Options {
		params[k] = v
	}
	params[ReservedInputKey] = r.Input
	return params
}
