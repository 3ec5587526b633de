package models

import "fmt"

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "Please select a valid origin airport"
	ErrMissingDestination    ValidationError = "Please select a valid destination airport"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrInvalidDepartureDate  ValidationError = "departure_date must be YYYY-MM-DD"
	ErrMissingReturnDate     ValidationError = "return_date is required for round-trip searches"
	ErrInvalidReturnDate     ValidationError = "return_date must be YYYY-MM-DD"
	ErrUnexpectedReturnDate  ValidationError = "return_date is only allowed for round-trip searches"
	ErrReturnBeforeDeparture ValidationError = "return_date must not be before departure_date"
	ErrPassengerCount        ValidationError = "passengers must be between 1 and 6"
	ErrIncompleteAirport     ValidationError = "airport is missing its sky or entity id"
	ErrNegativeMaxPrice      ValidationError = "max_price must not be negative"
)

// UpstreamError is a failed call to the flight-data provider. Status is zero
// when no HTTP response was received.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// MalformedResponseError describes a provider payload whose shape did not
// match the documented contract.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Endpoint, e.Reason)
}
