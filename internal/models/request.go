package models

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

const (
	MinPassengers = 1
	MaxPassengers = 6
)

const DefaultCabinClass = "economy"

type Field string

const (
	FieldOrigin      Field = "origin"
	FieldDestination Field = "destination"
)

func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldOrigin, FieldDestination:
		return Field(s), nil
	}
	return "", ValidationError(fmt.Sprintf("unknown field %q", s))
}

type TripType string

const (
	OneWay    TripType = "one-way"
	RoundTrip TripType = "round-trip"
)

type SearchCriteria struct {
	OriginSkyID         string   `json:"origin_sky_id"`
	OriginEntityID      string   `json:"origin_entity_id"`
	DestinationSkyID    string   `json:"destination_sky_id"`
	DestinationEntityID string   `json:"destination_entity_id"`
	DepartureDate       string   `json:"departure_date"`
	ReturnDate          *string  `json:"return_date,omitempty"`
	Passengers          int      `json:"passengers"`
	CabinClass          string   `json:"cabin_class"`
	TripType            TripType `json:"trip_type"`
}

// SetAirport copies the airport's identifiers into the endpoint named by field.
func (c *SearchCriteria) SetAirport(field Field, a Airport) {
	switch field {
	case FieldOrigin:
		c.OriginSkyID = a.SkyID
		c.OriginEntityID = a.EntityID
	case FieldDestination:
		c.DestinationSkyID = a.SkyID
		c.DestinationEntityID = a.EntityID
	}
}

// WithDefaults returns a copy with cabin class, trip type and passenger count
// filled in when left empty.
func (c SearchCriteria) WithDefaults() SearchCriteria {
	if c.Passengers == 0 {
		c.Passengers = MinPassengers
	}
	if c.CabinClass == "" {
		c.CabinClass = DefaultCabinClass
	}
	if c.TripType == "" {
		c.TripType = OneWay
	}
	if c.ReturnDate != nil {
		rd := *c.ReturnDate
		c.ReturnDate = &rd
	}
	return c
}

func (c SearchCriteria) Validate() error {
	if c.OriginSkyID == "" {
		return ErrMissingOrigin
	}
	if c.DestinationSkyID == "" {
		return ErrMissingDestination
	}
	if c.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	dep, err := time.Parse(DateLayout, c.DepartureDate)
	if err != nil {
		return ErrInvalidDepartureDate
	}

	switch c.TripType {
	case RoundTrip:
		if c.ReturnDate == nil || *c.ReturnDate == "" {
			return ErrMissingReturnDate
		}
		ret, err := time.Parse(DateLayout, *c.ReturnDate)
		if err != nil {
			return ErrInvalidReturnDate
		}
		if ret.Before(dep) {
			return ErrReturnBeforeDeparture
		}
	case OneWay:
		if c.ReturnDate != nil {
			return ErrUnexpectedReturnDate
		}
	default:
		return ValidationError(fmt.Sprintf("unknown trip_type %q", c.TripType))
	}

	if c.Passengers < MinPassengers || c.Passengers > MaxPassengers {
		return ErrPassengerCount
	}
	return nil
}
