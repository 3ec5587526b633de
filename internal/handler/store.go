package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/skyfinder/internal/session"
	"github.com/dharmasatrya/skyfinder/internal/suggest"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

var ErrSessionNotFound = errors.New("session not found")

// Workspace bundles one user's search session with the suggestion engine
// that feeds airport selections into it.
type Workspace struct {
	ID      string
	Search  *session.Session
	Suggest *suggest.Engine

	lastSeen time.Time
}

type WorkspaceFactory func(id string) *Workspace

type WorkspaceConfig struct {
	SuggestDelay  time.Duration
	SearchTimeout time.Duration
}

func NewWorkspaceFactory(searcher session.Searcher, lookup suggest.Lookup, cfg WorkspaceConfig, log *logger.Logger) WorkspaceFactory {
	return func(id string) *Workspace {
		wlog := log.With(logger.String("session_id", id))
		s := session.New(searcher, session.Config{SearchTimeout: cfg.SearchTimeout}, wlog)
		e := suggest.NewEngine(lookup, s, suggest.Config{Delay: cfg.SuggestDelay}, wlog)
		return &Workspace{ID: id, Search: s, Suggest: e}
	}
}

// Store keeps workspaces in memory and expires those idle for longer than
// the configured TTL. Nothing outlives the process.
type Store struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	ttl        time.Duration
	factory    WorkspaceFactory
	logger     *logger.Logger
	now        func() time.Time
}

func NewStore(ttl time.Duration, factory WorkspaceFactory, log *logger.Logger) *Store {
	return &Store{
		workspaces: make(map[string]*Workspace),
		ttl:        ttl,
		factory:    factory,
		logger:     log.Named("sessions"),
		now:        time.Now,
	}
}

func (s *Store) Create() *Workspace {
	id := uuid.New().String()
	ws := s.factory(id)

	s.mu.Lock()
	ws.lastSeen = s.now()
	s.workspaces[id] = ws
	n := len(s.workspaces)
	s.mu.Unlock()

	s.logger.Debug("Session created", logger.String("session_id", id), logger.Int("active", n))
	return ws
}

func (s *Store) Get(id string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	ws.lastSeen = s.now()
	return ws, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	ws, ok := s.workspaces[id]
	delete(s.workspaces, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	ws.Suggest.Close()
	return nil
}

// Sweep removes workspaces idle for longer than the TTL and returns how
// many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Workspace
	for id, ws := range s.workspaces {
		if ws.lastSeen.Before(cutoff) {
			expired = append(expired, ws)
			delete(s.workspaces, id)
		}
	}
	s.mu.Unlock()

	for _, ws := range expired {
		ws.Suggest.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("Expired idle sessions", logger.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) Close() {
	s.mu.Lock()
	all := s.workspaces
	s.workspaces = make(map[string]*Workspace)
	s.mu.Unlock()

	for _, ws := range all {
		ws.Suggest.Close()
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}
