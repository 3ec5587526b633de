package skyscanner

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dharmasatrya/skyfinder/internal/models"
)

// flexString decodes a JSON string or number into a string. The provider is
// not consistent about the type of entity ids.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type airportEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type airportItem struct {
	SkyID                flexString `json:"skyId"`
	EntityID             flexString `json:"entityId"`
	RelevantFlightParams struct {
		SkyID         flexString `json:"skyId"`
		EntityID      flexString `json:"entityId"`
		LocalizedName string     `json:"localizedName"`
		IataCode      string     `json:"iataCode"`
	} `json:"relevantFlightParams"`
	Presentation struct {
		Title           string `json:"title"`
		SuggestionTitle string `json:"suggestionTitle"`
	} `json:"presentation"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (it airportItem) airport() models.Airport {
	params := it.RelevantFlightParams
	skyID := firstNonEmpty(string(params.SkyID), string(it.SkyID))
	entityID := firstNonEmpty(string(it.EntityID), string(params.EntityID))
	name := firstNonEmpty(it.Presentation.Title, params.LocalizedName)

	city := firstNonEmpty(params.LocalizedName, it.Presentation.SuggestionTitle)
	if city == "" {
		city, _, _ = strings.Cut(name, ",")
	}

	return models.Airport{
		Code:     firstNonEmpty(skyID, params.IataCode, entityID),
		Name:     name,
		City:     city,
		SkyID:    skyID,
		EntityID: entityID,
	}
}

type errorBody struct {
	Message string `json:"message"`
}

type SearchResponse struct {
	Status bool         `json:"status"`
	Data   SearchResult `json:"data"`
}

type SearchResult struct {
	Itineraries []Itinerary `json:"itineraries"`
}

type Itinerary struct {
	ID         string      `json:"id"`
	Price      Price       `json:"price"`
	StopCount  int         `json:"stopCount"`
	Tags       []string    `json:"tags,omitempty"`
	FarePolicy *FarePolicy `json:"farePolicy,omitempty"`
	Legs       []Leg       `json:"legs"`
}

type Price struct {
	Raw       float64 `json:"raw"`
	Formatted string  `json:"formatted"`
}

type FarePolicy struct {
	IsChangeAllowed       bool `json:"isChangeAllowed"`
	IsCancellationAllowed bool `json:"isCancellationAllowed"`
}

type Leg struct {
	Departure   string   `json:"departure"`
	Arrival     string   `json:"arrival"`
	Origin      Place    `json:"origin"`
	Destination Place    `json:"destination"`
	Carriers    Carriers `json:"carriers"`
}

type Place struct {
	City        string `json:"city"`
	DisplayCode string `json:"displayCode"`
}

type Carriers struct {
	Marketing []Carrier `json:"marketing"`
}

type Carrier struct {
	Name         string `json:"name"`
	FlightNumber string `json:"flightNumber"`
}
