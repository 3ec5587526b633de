package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type SortKey string

const (
	SortByPrice     SortKey = "price"
	SortByDuration  SortKey = "duration"
	SortByDeparture SortKey = "departure"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByPrice, SortByDuration, SortByDeparture:
		return true
	}
	return false
}

const MaxStopsFilter = 2

// Stops is an optional exact stop count. The zero value means any number of
// stops.
type Stops struct {
	n   int
	set bool
}

var AnyStops = Stops{}

func StopsOf(n int) (Stops, error) {
	if n < 0 || n > MaxStopsFilter {
		return Stops{}, ValidationError(fmt.Sprintf("stops must be between 0 and %d", MaxStopsFilter))
	}
	return Stops{n: n, set: true}, nil
}

func (s Stops) Get() (int, bool) {
	return s.n, s.set
}

func (s Stops) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.n)
}

func (s *Stops) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = AnyStops
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return ValidationError("stops must be a number or null")
	}
	v, err := StopsOf(n)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type FilterState struct {
	Airlines []string `json:"airlines"`
	MaxPrice *float64 `json:"max_price"`
	Stops    Stops    `json:"stops"`
	SortBy   SortKey  `json:"sort_by"`
}

func DefaultFilters() FilterState {
	return FilterState{
		Airlines: []string{},
		SortBy:   SortByPrice,
	}
}

func (f FilterState) Validate() error {
	if !f.SortBy.Valid() {
		return ValidationError(fmt.Sprintf("unknown sort_by %q", f.SortBy))
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return ErrNegativeMaxPrice
	}
	return nil
}

// Clone returns a deep copy so callers never share the airline slice or the
// price pointer.
func (f FilterState) Clone() FilterState {
	out := f
	out.Airlines = append([]string{}, f.Airlines...)
	if f.MaxPrice != nil {
		p := *f.MaxPrice
		out.MaxPrice = &p
	}
	return out
}
