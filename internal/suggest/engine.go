package suggest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dharmasatrya/skyfinder/internal/debounce"
	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

const DefaultDelay = 300 * time.Millisecond

var ErrUnknownSuggestion = errors.New("airport is not among the current suggestions")

type Lookup interface {
	SearchAirports(ctx context.Context, query string) ([]models.Airport, error)
}

// Selector receives the airport a user picked for a field.
type Selector interface {
	SelectAirport(field models.Field, a models.Airport) error
}

type Config struct {
	Delay time.Duration
	// OnChange is called, without engine locks held, after every visible
	// change to a field's state.
	OnChange func(models.SuggestionState)
}

// Engine produces airport suggestions for the origin and destination
// fields. Input is debounced per field, and only the most recently issued
// request for a field may update that field's list.
type Engine struct {
	lookup    Lookup
	selector  Selector
	delay     time.Duration
	onChange  func(models.SuggestionState)
	debouncer *debounce.Debouncer
	logger    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	inflight sync.WaitGroup

	mu     sync.Mutex
	fields map[models.Field]*fieldState
	closed bool
}

type fieldState struct {
	query       string
	suggestions []models.Airport
	loading     bool
	open        bool
	// seq is the number of the latest request issued for the field.
	seq    uint64
	cancel context.CancelFunc
}

func NewEngine(lookup Lookup, selector Selector, cfg Config, log *logger.Logger) *Engine {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		lookup:    lookup,
		selector:  selector,
		delay:     cfg.Delay,
		onChange:  cfg.OnChange,
		debouncer: debounce.New(),
		logger:    log.Named("suggest"),
		ctx:       ctx,
		cancel:    cancel,
		fields:    make(map[models.Field]*fieldState),
	}
}

// Suggest records a keystroke for field. Non-empty queries are looked up
// once the field has been quiet for the debounce delay; an empty query
// clears the list immediately without a lookup.
func (e *Engine) Suggest(field models.Field, query string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fs := e.field(field)
	fs.query = query
	fs.open = true

	if query == "" {
		e.debouncer.Cancel(string(field))
		fs.invalidate()
		fs.suggestions = []models.Airport{}
		snap := fs.snapshot(field)
		e.mu.Unlock()
		e.notify(snap)
		return
	}
	e.mu.Unlock()

	e.debouncer.Start(string(field), e.delay, func() {
		e.issue(field, query)
	})
}

func (e *Engine) issue(field models.Field, query string) {
	e.mu.Lock()
	fs := e.field(field)
	// The query may have changed between the timer firing and this lock.
	if e.closed || fs.query != query {
		e.mu.Unlock()
		return
	}
	fs.invalidate()
	seq := fs.seq
	ctx, cancel := context.WithCancel(e.ctx)
	fs.cancel = cancel
	fs.loading = true
	e.inflight.Add(1)
	snap := fs.snapshot(field)
	e.mu.Unlock()

	defer e.inflight.Done()
	e.notify(snap)

	airports, err := e.lookup.SearchAirports(ctx, query)
	cancel()

	e.mu.Lock()
	if fs.seq != seq {
		e.mu.Unlock()
		e.logger.Debug("Discarding superseded suggestions",
			logger.String("field", string(field)),
			logger.String("query", query),
			logger.Uint64("seq", seq),
		)
		return
	}
	fs.cancel = nil
	fs.loading = false
	if err != nil {
		e.logger.Warn("Airport suggestion lookup failed",
			logger.String("field", string(field)),
			logger.String("query", query),
			logger.Error(err),
		)
		fs.suggestions = []models.Airport{}
	} else {
		fs.suggestions = append([]models.Airport{}, airports...)
	}
	snap = fs.snapshot(field)
	e.mu.Unlock()

	e.notify(snap)
}

// Select commits the suggestion with the given code to the selector and
// closes that field's list.
func (e *Engine) Select(field models.Field, code string) (models.Airport, error) {
	e.mu.Lock()
	fs := e.field(field)
	var (
		picked models.Airport
		found  bool
	)
	for _, a := range fs.suggestions {
		if a.Code == code {
			picked, found = a, true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return models.Airport{}, ErrUnknownSuggestion
	}
	if err := e.selector.SelectAirport(field, picked); err != nil {
		return models.Airport{}, err
	}

	e.debouncer.Cancel(string(field))

	e.mu.Lock()
	fs.invalidate()
	fs.query = picked.Code
	fs.open = false
	snap := fs.snapshot(field)
	e.mu.Unlock()

	e.notify(snap)
	return picked, nil
}

// Dismiss hides field's list without selecting anything.
func (e *Engine) Dismiss(field models.Field) {
	e.mu.Lock()
	fs := e.field(field)
	fs.open = false
	snap := fs.snapshot(field)
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) State(field models.Field) models.SuggestionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.field(field).snapshot(field)
}

// Wait blocks until every lookup that has already been issued returns.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close stops pending timers, cancels in-flight lookups and waits for them.
func (e *Engine) Close() {
	e.debouncer.Stop()

	e.mu.Lock()
	e.closed = true
	for _, fs := range e.fields {
		fs.invalidate()
	}
	e.mu.Unlock()

	e.cancel()
	e.inflight.Wait()
}

func (e *Engine) field(f models.Field) *fieldState {
	fs, ok := e.fields[f]
	if !ok {
		fs = &fieldState{suggestions: []models.Airport{}}
		e.fields[f] = fs
	}
	return fs
}

func (e *Engine) notify(s models.SuggestionState) {
	if e.onChange != nil {
		e.onChange(s)
	}
}

// invalidate makes any outstanding request for the field stale.
func (fs *fieldState) invalidate() {
	fs.seq++
	if fs.cancel != nil {
		fs.cancel()
		fs.cancel = nil
	}
	fs.loading = false
}

func (fs *fieldState) snapshot(field models.Field) models.SuggestionState {
	return models.SuggestionState{
		Field:       field,
		Query:       fs.query,
		Suggestions: append([]models.Airport{}, fs.suggestions...),
		Loading:     fs.loading,
		Open:        fs.open,
	}
}
