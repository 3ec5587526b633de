package filter

import (
	"sort"
	"time"

	"github.com/dharmasatrya/skyfinder/internal/models"
)

const departureLayout = models.DateLayout + " 15:04"

// Apply returns the flights that pass every constraint in filters, ordered
// by filters.SortBy. The input slice is never modified.
func Apply(flights []models.Flight, filters models.FilterState) []models.Flight {
	filtered := applyFilters(flights, filters)
	applySort(filtered, filters.SortBy)
	return filtered
}

func applyFilters(flights []models.Flight, filters models.FilterState) []models.Flight {
	var airlines map[string]struct{}
	if len(filters.Airlines) > 0 {
		airlines = make(map[string]struct{}, len(filters.Airlines))
		for _, a := range filters.Airlines {
			airlines[a] = struct{}{}
		}
	}

	result := make([]models.Flight, 0, len(flights))
	for _, f := range flights {
		if matchesFilters(f, filters, airlines) {
			result = append(result, f)
		}
	}
	return result
}

func matchesFilters(f models.Flight, filters models.FilterState, airlines map[string]struct{}) bool {
	if airlines != nil {
		if _, ok := airlines[f.Airline]; !ok {
			return false
		}
	}

	if filters.MaxPrice != nil && f.Price > *filters.MaxPrice {
		return false
	}

	if stops, ok := filters.Stops.Get(); ok && f.Stops != stops {
		return false
	}

	return true
}

func applySort(flights []models.Flight, sortBy models.SortKey) {
	if len(flights) < 2 {
		return
	}

	switch sortBy {
	case models.SortByDuration:
		sort.SliceStable(flights, func(i, j int) bool {
			return flights[i].DurationMinutes < flights[j].DurationMinutes
		})

	case models.SortByDeparture:
		keys := make(map[string]time.Time, len(flights))
		at := func(f models.Flight) time.Time {
			k := f.DepartureDate + " " + f.DepartureTime
			t, ok := keys[k]
			if !ok {
				// Unparseable values sort first as the zero instant.
				t, _ = time.Parse(departureLayout, k)
				keys[k] = t
			}
			return t
		}
		sort.SliceStable(flights, func(i, j int) bool {
			return at(flights[i]).Before(at(flights[j]))
		})

	default:
		sort.SliceStable(flights, func(i, j int) bool {
			return flights[i].Price < flights[j].Price
		})
	}
}

// Facets summarises an unfiltered result set: the distinct airlines in
// first-seen order and the highest price.
func Facets(flights []models.Flight) models.Facets {
	out := models.Facets{Airlines: []string{}}
	seen := make(map[string]bool)
	for _, f := range flights {
		if !seen[f.Airline] {
			seen[f.Airline] = true
			out.Airlines = append(out.Airlines, f.Airline)
		}
		if f.Price > out.MaxPrice {
			out.MaxPrice = f.Price
		}
	}
	return out
}
