package filter

import (
	"testing"

	"github.com/dharmasatrya/skyfinder/internal/models"
)

func flight(id, airline string, price float64, minutes, stops int, date, clock string) models.Flight {
	return models.Flight{
		ID:              id,
		Airline:         airline,
		Price:           price,
		DurationMinutes: minutes,
		Stops:           stops,
		DepartureDate:   date,
		DepartureTime:   clock,
		Tags:            []string{},
	}
}

func sample() []models.Flight {
	return []models.Flight{
		flight("a", "Delta", 500, 420, 0, "2024-05-01", "09:00"),
		flight("b", "United", 200, 610, 1, "2024-05-01", "06:30"),
		flight("c", "Delta", 350, 380, 2, "2024-04-30", "23:45"),
		flight("d", "JetBlue", 200, 455, 1, "2024-05-01", "14:10"),
	}
}

func ids(flights []models.Flight) []string {
	out := make([]string, len(flights))
	for i, f := range flights {
		out[i] = f.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func price(p float64) *float64 { return &p }

func stops(t *testing.T, n int) models.Stops {
	t.Helper()
	s, err := models.StopsOf(n)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		filters models.FilterState
		want    []string
	}{
		{
			name:    "defaults sort by price, stable for ties",
			filters: models.DefaultFilters(),
			want:    []string{"b", "d", "c", "a"},
		},
		{
			name:    "sort by duration",
			filters: models.FilterState{SortBy: models.SortByDuration},
			want:    []string{"c", "a", "d", "b"},
		},
		{
			name:    "sort by departure instant",
			filters: models.FilterState{SortBy: models.SortByDeparture},
			want:    []string{"c", "b", "a", "d"},
		},
		{
			name:    "airline set",
			filters: models.FilterState{Airlines: []string{"Delta", "JetBlue"}, SortBy: models.SortByPrice},
			want:    []string{"d", "c", "a"},
		},
		{
			name:    "airline match is exact",
			filters: models.FilterState{Airlines: []string{"delta"}, SortBy: models.SortByPrice},
			want:    []string{},
		},
		{
			name:    "max price inclusive",
			filters: models.FilterState{MaxPrice: price(350), SortBy: models.SortByPrice},
			want:    []string{"b", "d", "c"},
		},
		{
			name:    "zero max price is a constraint",
			filters: models.FilterState{MaxPrice: price(0), SortBy: models.SortByPrice},
			want:    []string{},
		},
		{
			name:    "stops exact match",
			filters: models.FilterState{Stops: stops(t, 1), SortBy: models.SortByDuration},
			want:    []string{"d", "b"},
		},
		{
			name:    "non-stop excludes one-stop flights",
			filters: models.FilterState{Stops: stops(t, 0), SortBy: models.SortByPrice},
			want:    []string{"a"},
		},
		{
			name: "combined",
			filters: models.FilterState{
				Airlines: []string{"Delta", "United"},
				MaxPrice: price(400),
				Stops:    stops(t, 2),
				SortBy:   models.SortByPrice,
			},
			want: []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sample(), tt.filters))
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := sample()
	before := ids(in)

	_ = Apply(in, models.FilterState{SortBy: models.SortByDuration})
	_ = Apply(in, models.FilterState{Stops: stops(t, 1), SortBy: models.SortByPrice})

	if !equal(ids(in), before) {
		t.Errorf("input reordered: %v", ids(in))
	}
}

func TestUnconstrainedIsPermutation(t *testing.T) {
	in := sample()
	for _, key := range []models.SortKey{models.SortByPrice, models.SortByDuration, models.SortByDeparture} {
		got := Apply(in, models.FilterState{SortBy: key})
		if len(got) != len(in) {
			t.Fatalf("%s: got %d flights, want %d", key, len(got), len(in))
		}
		seen := make(map[string]int)
		for _, f := range got {
			seen[f.ID]++
		}
		for _, f := range in {
			if seen[f.ID] != 1 {
				t.Errorf("%s: flight %s appears %d times", key, f.ID, seen[f.ID])
			}
		}
	}
}

func TestSortByPriceStability(t *testing.T) {
	in := []models.Flight{
		flight("x", "A", 500, 0, 0, "", ""),
		flight("y", "A", 200, 0, 0, "", ""),
		flight("z", "A", 350, 0, 0, "", ""),
		flight("y2", "A", 200, 0, 0, "", ""),
	}
	got := Apply(in, models.DefaultFilters())
	var prices []float64
	for _, f := range got {
		prices = append(prices, f.Price)
	}
	if prices[0] != 200 || prices[1] != 200 || prices[2] != 350 || prices[3] != 500 {
		t.Errorf("prices = %v", prices)
	}
	if got[0].ID != "y" || got[1].ID != "y2" {
		t.Errorf("tie order = %v", ids(got))
	}
}

func TestApplyEmpty(t *testing.T) {
	got := Apply(nil, models.DefaultFilters())
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestFacets(t *testing.T) {
	f := Facets(sample())
	if !equal(f.Airlines, []string{"Delta", "United", "JetBlue"}) {
		t.Errorf("airlines = %v", f.Airlines)
	}
	if f.MaxPrice != 500 {
		t.Errorf("max price = %v", f.MaxPrice)
	}

	empty := Facets(nil)
	if empty.Airlines == nil || empty.MaxPrice != 0 {
		t.Errorf("empty facets = %+v", empty)
	}
}
