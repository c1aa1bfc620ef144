package models

import (
	"errors"
	"fmt"
)

var (
	// ErrPlacesNotLoaded is reported when the places library cannot be resolved
	ErrPlacesNotLoaded = errors.New("places library must be loaded before autocomplete can be used")
	ErrMissingPlaceID  = errors.New("a place id is required, either as a string or from a prediction")
	ErrAddressRequired = errors.New("an address is required when component restrictions are set")
)

// RequestError is returned when the places service answers with a non-OK status
type RequestError struct {
	Op     string
	Status string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: service returned status %s", e.Op, e.Status)
}

// ValidationError reports misuse detectable before any request is made
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
