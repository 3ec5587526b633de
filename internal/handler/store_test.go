package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/internal/skyscanner"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

type nopUpstream struct{}

func (nopUpstream) SearchAirports(context.Context, string) ([]models.Airport, error) {
	return nil, nil
}

func (nopUpstream) SearchItineraries(context.Context, models.SearchCriteria) (*skyscanner.SearchResponse, error) {
	return &skyscanner.SearchResponse{}, nil
}

func newTestStore(ttl time.Duration) (*Store, *time.Time) {
	log := logger.Nop()
	s := NewStore(ttl, NewWorkspaceFactory(nopUpstream{}, nopUpstream{}, WorkspaceConfig{}, log), log)
	clock := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestStoreCreateGetDelete(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	defer s.Close()

	ws := s.Create()
	if ws.ID == "" || ws.Search == nil || ws.Suggest == nil {
		t.Fatalf("workspace = %+v", ws)
	}

	got, err := s.Get(ws.ID)
	if err != nil || got != ws {
		t.Fatalf("Get = %v, %v", got, err)
	}

	if err := s.Delete(ws.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ws.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := s.Delete(ws.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete = %v", err)
	}
}

func TestStoreIDsAreUnique(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	defer s.Close()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := s.Create().ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	if s.Len() != 50 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestStoreSweep(t *testing.T) {
	s, clock := newTestStore(30 * time.Minute)
	defer s.Close()

	idle := s.Create()
	active := s.Create()

	*clock = clock.Add(20 * time.Minute)
	if _, err := s.Get(active.ID); err != nil {
		t.Fatal(err)
	}

	*clock = clock.Add(15 * time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d", n)
	}
	if _, err := s.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session survived: %v", err)
	}
	if _, err := s.Get(active.ID); err != nil {
		t.Errorf("active session expired: %v", err)
	}
}

func TestStoreRunStopsWithContext(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStoreClose(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	s.Create()
	s.Create()

	s.Close()
	if s.Len() != 0 {
		t.Errorf("Len after Close = %d", s.Len())
	}
}
