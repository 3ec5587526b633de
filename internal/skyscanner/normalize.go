package skyscanner

import (
	"fmt"
	"math"

	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/internal/timeparse"
	"github.com/dharmasatrya/skyfinder/pkg/currency"
)

const (
	clockLayout = "15:04"
)

// Normalize maps raw itineraries onto flights, preserving input order.
// Itineraries without legs or with unreadable leg timestamps cannot be
// represented and are left out.
func Normalize(itineraries []Itinerary, cabinClass string) []models.Flight {
	if cabinClass == "" {
		cabinClass = models.DefaultCabinClass
	}

	flights := make([]models.Flight, 0, len(itineraries))
	for _, it := range itineraries {
		f, err := normalizeItinerary(it, cabinClass)
		if err != nil {
			continue
		}
		flights = append(flights, f)
	}
	return flights
}

func normalizeItinerary(it Itinerary, cabinClass string) (models.Flight, error) {
	if len(it.Legs) == 0 {
		return models.Flight{}, fmt.Errorf("itinerary %s has no legs", it.ID)
	}
	first := it.Legs[0]
	last := it.Legs[len(it.Legs)-1]

	dep, err := timeparse.Parse(first.Departure)
	if err != nil {
		return models.Flight{}, err
	}
	arr, err := timeparse.Parse(last.Arrival)
	if err != nil {
		return models.Flight{}, err
	}

	// Upstream arithmetic is trusted: zero or negative durations pass through.
	minutes := int(math.Round(arr.Sub(dep).Minutes()))

	airline, number := models.UnknownAirline, ""
	if len(first.Carriers.Marketing) > 0 {
		c := first.Carriers.Marketing[0]
		if c.Name != "" {
			airline = c.Name
		}
		number = c.FlightNumber
	}

	var policy models.FarePolicy
	if it.FarePolicy != nil {
		policy.IsRefundable = it.FarePolicy.IsCancellationAllowed
		policy.IsChangeable = it.FarePolicy.IsChangeAllowed
	}

	tags := make([]string, len(it.Tags))
	copy(tags, it.Tags)

	formatted := it.Price.Formatted
	if formatted == "" {
		formatted = currency.FormatUSD(it.Price.Raw)
	}

	return models.Flight{
		ID:              it.ID,
		Airline:         airline,
		FlightNumber:    number,
		DepartureTime:   dep.Format(clockLayout),
		ArrivalTime:     arr.Format(clockLayout),
		DepartureDate:   dep.Format(models.DateLayout),
		Origin:          place(first.Origin),
		Destination:     place(last.Destination),
		DurationMinutes: minutes,
		Duration:        FormatDuration(minutes),
		Stops:           it.StopCount,
		Price:           it.Price.Raw,
		FormattedPrice:  formatted,
		CabinClass:      cabinClass,
		FarePolicy:      policy,
		Tags:            tags,
	}, nil
}

func place(p Place) string {
	return fmt.Sprintf("%s (%s)", p.City, p.DisplayCode)
}

// FormatDuration renders minutes as "3h 5m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
