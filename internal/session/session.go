package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dharmasatrya/skyfinder/internal/filter"
	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/internal/skyscanner"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

const DefaultSearchTimeout = 30 * time.Second

var ErrSearchInProgress = errors.New("a search is already in progress")

type Searcher interface {
	SearchItineraries(ctx context.Context, criteria models.SearchCriteria) (*skyscanner.SearchResponse, error)
}

type Config struct {
	SearchTimeout time.Duration
}

// Session owns one user's search: the criteria being assembled, the state
// of the latest search and the filters applied to its results.
//
// Callers are expected not to submit while a search is loading; Submit
// reports ErrSearchInProgress if they do.
type Session struct {
	searcher Searcher
	timeout  time.Duration
	logger   *logger.Logger

	mu       sync.Mutex
	criteria models.SearchCriteria
	filters  models.FilterState
	state    models.SearchState
}

func New(searcher Searcher, cfg Config, log *logger.Logger) *Session {
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	return &Session{
		searcher: searcher,
		timeout:  cfg.SearchTimeout,
		logger:   log.Named("session"),
		filters:  models.DefaultFilters(),
		state:    models.SearchState{Status: models.StatusIdle},
	}
}

// SelectAirport copies the airport's identifiers into the criteria for
// field. Airports lacking either identifier cannot be searched and are
// rejected.
func (s *Session) SelectAirport(field models.Field, a models.Airport) error {
	if field != models.FieldOrigin && field != models.FieldDestination {
		return models.ValidationError("unknown field " + string(field))
	}
	if !a.Selectable() {
		return models.ErrIncompleteAirport
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.SetAirport(field, a)
	return nil
}

// Submit validates criteria and runs the search. Validation failures are
// returned without touching the state or the network. Upstream failures
// move the session to StatusError and are returned as well.
func (s *Session) Submit(ctx context.Context, criteria models.SearchCriteria) error {
	criteria = criteria.WithDefaults()
	if err := criteria.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.Status == models.StatusLoading {
		s.mu.Unlock()
		return ErrSearchInProgress
	}
	s.criteria = criteria
	s.state = models.SearchState{Status: models.StatusLoading}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.searcher.SearchItineraries(ctx, criteria)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Flight search failed",
			logger.String("origin", criteria.OriginSkyID),
			logger.String("destination", criteria.DestinationSkyID),
			logger.Error(err),
		)
		s.state = models.SearchState{Status: models.StatusError, Message: err.Error()}
		return err
	}

	var itineraries []skyscanner.Itinerary
	if resp != nil {
		itineraries = resp.Data.Itineraries
	}
	flights := skyscanner.Normalize(itineraries, criteria.CabinClass)
	if dropped := len(itineraries) - len(flights); dropped > 0 {
		s.logger.Warn("Dropped itineraries that could not be normalized",
			logger.Int("dropped", dropped),
		)
	}

	s.logger.Info("Flight search completed",
		logger.String("origin", criteria.OriginSkyID),
		logger.String("destination", criteria.DestinationSkyID),
		logger.Int("results", len(flights)),
		logger.Duration("duration", time.Since(start)),
	)
	s.state = models.SearchState{Status: models.StatusSuccess, Flights: flights}
	return nil
}

// ApplyFilters replaces the current filters wholesale.
func (s *Session) ApplyFilters(f models.FilterState) error {
	if f.SortBy == "" {
		f.SortBy = models.SortByPrice
	}
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f.Clone()
	return nil
}

func (s *Session) State() models.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.Flights != nil {
		st.Flights = append([]models.Flight(nil), st.Flights...)
	}
	return st
}

// Results returns the filtered and sorted flights of a successful search,
// or an empty list in any other state.
func (s *Session) Results() []models.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != models.StatusSuccess {
		return []models.Flight{}
	}
	return filter.Apply(s.state.Flights, s.filters)
}

func (s *Session) Facets() models.Facets {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != models.StatusSuccess {
		return filter.Facets(nil)
	}
	return filter.Facets(s.state.Flights)
}

func (s *Session) Criteria() models.SearchCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria.WithDefaults()
}

func (s *Session) Filters() models.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}
