package models

const UnknownAirline = "Unknown Airline"

const TagCheapest = "cheapest"

type Airport struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	City     string `json:"city"`
	SkyID    string `json:"sky_id"`
	EntityID string `json:"entity_id"`
}

// Selectable reports whether the airport carries both identifiers the
// provider needs to reference it in a flight search.
func (a Airport) Selectable() bool {
	return a.SkyID != "" && a.EntityID != ""
}

type FarePolicy struct {
	IsRefundable bool `json:"is_refundable"`
	IsChangeable bool `json:"is_changeable"`
}

// Flight is one normalized itinerary. Values are built once by the provider
// normalizer and never modified afterwards.
type Flight struct {
	ID              string     `json:"id"`
	Airline         string     `json:"airline"`
	FlightNumber    string     `json:"flight_number"`
	DepartureTime   string     `json:"departure_time"`
	ArrivalTime     string     `json:"arrival_time"`
	DepartureDate   string     `json:"departure_date"`
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	DurationMinutes int        `json:"duration_minutes"`
	Duration        string     `json:"duration"`
	Stops           int        `json:"stops"`
	Price           float64    `json:"price"`
	FormattedPrice  string     `json:"formatted_price"`
	CabinClass      string     `json:"cabin_class"`
	FarePolicy      FarePolicy `json:"fare_policy"`
	Tags            []string   `json:"tags"`
}

func (f Flight) IsCheapest() bool {
	for _, t := range f.Tags {
		if t == TagCheapest {
			return true
		}
	}
	return false
}
