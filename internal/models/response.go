package models

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// SearchState is a snapshot of a search session. Flights is only populated in
// StatusSuccess and Message only in StatusError.
type SearchState struct {
	Status  Status   `json:"status"`
	Flights []Flight `json:"flights,omitempty"`
	Message string   `json:"message,omitempty"`
}

type Facets struct {
	Airlines []string `json:"airlines"`
	MaxPrice float64  `json:"max_price"`
}

type SuggestionState struct {
	Field       Field     `json:"field"`
	Query       string    `json:"query"`
	Suggestions []Airport `json:"suggestions"`
	Loading     bool      `json:"loading"`
	Open        bool      `json:"open"`
}

// SessionView is the client-facing picture of a session. State carries no
// flights; Results holds the filtered list and TotalResults the unfiltered
// count.
type SessionView struct {
	ID           string         `json:"id"`
	Criteria     SearchCriteria `json:"criteria"`
	Filters      FilterState    `json:"filters"`
	State        SearchState    `json:"state"`
	Results      []Flight       `json:"results"`
	TotalResults int            `json:"total_results"`
	Facets       Facets         `json:"facets"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
