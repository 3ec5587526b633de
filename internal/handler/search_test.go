package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/internal/ratelimit"
	"github.com/dharmasatrya/skyfinder/internal/skyscanner"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

const airportsJSON = `{"data":[
	{"entityId":"95565058","presentation":{"title":"New York John F. Kennedy"},
	 "relevantFlightParams":{"skyId":"JFK","localizedName":"New York"}},
	{"entityId":"95565050","presentation":{"title":"London Heathrow"},
	 "relevantFlightParams":{"skyId":"LHR","localizedName":"London"}}
]}`

const itinerariesJSON = `{"status":true,"data":{"itineraries":[
	{"id":"slow","price":{"raw":640,"formatted":"$640"},"stopCount":1,
	 "legs":[{"departure":"2024-07-01T18:00:00","arrival":"2024-07-02T09:45:00",
	  "origin":{"city":"New York","displayCode":"JFK"},"destination":{"city":"London","displayCode":"LHR"},
	  "carriers":{"marketing":[{"name":"Icelandair","flightNumber":"FI614"}]}}]},
	{"id":"direct","price":{"raw":720,"formatted":"$720"},"stopCount":0,"tags":["cheapest"],
	 "legs":[{"departure":"2024-07-01T21:00:00","arrival":"2024-07-02T09:00:00",
	  "origin":{"city":"New York","displayCode":"JFK"},"destination":{"city":"London","displayCode":"LHR"},
	  "carriers":{"marketing":[{"name":"British Airways","flightNumber":"BA178"}]}}]}
]}}`

type upstream struct {
	fail    atomic.Bool
	flights atomic.Int32
}

func newTestServer(t *testing.T) (*echo.Echo, *upstream) {
	t.Helper()
	up := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/flights/searchAirport", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(airportsJSON))
	})
	mux.HandleFunc("/api/v2/flights/searchFlightsWebComplete", func(w http.ResponseWriter, r *http.Request) {
		up.flights.Add(1)
		if up.fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"Too many requests"}`))
			return
		}
		w.Write([]byte(itinerariesJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := logger.Nop()
	client := skyscanner.NewClient(skyscanner.Config{
		BaseURL: srv.URL,
		APIKey:  "test",
		Limiter: ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 100}),
	}, log)

	store := NewStore(time.Hour, NewWorkspaceFactory(client, client, WorkspaceConfig{
		SuggestDelay:  5 * time.Millisecond,
		SearchTimeout: 5 * time.Second,
	}, log), log)
	t.Cleanup(store.Close)

	return NewRouter(NewSearchHandler(store), log), up
}

func do(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	return decode[createSessionResponse](t, rec).ID
}

func pick(t *testing.T, e *echo.Echo, id, field, query, code string) {
	t.Helper()
	base := "/api/v1/sessions/" + id

	rec := do(t, e, http.MethodPost, base+"/suggestions", suggestRequest{Field: field, Query: query})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("suggest: %d %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		st := decode[models.SuggestionState](t, do(t, e, http.MethodGet, base+"/suggestions?field="+field, nil))
		if !st.Loading && len(st.Suggestions) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("suggestions for %s never arrived", field)
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = do(t, e, http.MethodPost, base+"/select", selectRequest{Field: field, Code: code})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSearchFlow(t *testing.T) {
	e, up := newTestServer(t)
	id := createSession(t, e)
	base := "/api/v1/sessions/" + id

	pick(t, e, id, "origin", "new york", "JFK")
	pick(t, e, id, "destination", "london", "LHR")

	rec := do(t, e, http.MethodPost, base+"/search", searchRequest{DepartureDate: "2024-07-01", Passengers: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("search: %d %s", rec.Code, rec.Body.String())
	}
	v := decode[models.SessionView](t, rec)

	if v.State.Status != models.StatusSuccess || v.TotalResults != 2 {
		t.Fatalf("view = %+v", v)
	}
	if v.Criteria.OriginEntityID != "95565058" || v.Criteria.DestinationSkyID != "LHR" || v.Criteria.Passengers != 2 {
		t.Errorf("criteria = %+v", v.Criteria)
	}
	if v.Results[0].ID != "slow" || v.Results[1].ID != "direct" {
		t.Errorf("results not sorted by price: %+v", v.Results)
	}
	if v.Results[0].Duration != "15h 45m" {
		t.Errorf("duration = %q", v.Results[0].Duration)
	}
	if !v.Results[1].IsCheapest() {
		t.Error("cheapest tag lost")
	}
	if len(v.Facets.Airlines) != 2 || v.Facets.MaxPrice != 720 {
		t.Errorf("facets = %+v", v.Facets)
	}

	rec = do(t, e, http.MethodPut, base+"/filters", map[string]any{"stops": 0, "sort_by": "duration"})
	if rec.Code != http.StatusOK {
		t.Fatalf("filters: %d %s", rec.Code, rec.Body.String())
	}
	v = decode[models.SessionView](t, rec)
	if len(v.Results) != 1 || v.Results[0].ID != "direct" || v.TotalResults != 2 {
		t.Errorf("filtered view = %+v", v)
	}

	rec = do(t, e, http.MethodPut, base+"/filters", map[string]any{"sort_by": "departure"})
	v = decode[models.SessionView](t, rec)
	if len(v.Results) != 2 || v.Results[0].ID != "slow" {
		t.Errorf("replaced filters view = %+v", v.Results)
	}
	if !strings.Contains(rec.Body.String(), `"stops":null`) {
		t.Errorf("stops not reset to null: %s", rec.Body.String())
	}

	if up.flights.Load() != 1 {
		t.Errorf("flight calls = %d", up.flights.Load())
	}
}

func TestSearchValidation(t *testing.T) {
	e, up := newTestServer(t)
	id := createSession(t, e)

	rec := do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/search", searchRequest{DepartureDate: "2024-07-01"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); got.Error != "validation_error" {
		t.Errorf("error = %+v", got)
	}
	if up.flights.Load() != 0 {
		t.Error("upstream called for invalid search")
	}

	v := decode[models.SessionView](t, do(t, e, http.MethodGet, "/api/v1/sessions/"+id, nil))
	if v.State.Status != models.StatusIdle {
		t.Errorf("status = %s", v.State.Status)
	}
}

func TestRoundTripNeedsReturnDate(t *testing.T) {
	e, up := newTestServer(t)
	id := createSession(t, e)
	pick(t, e, id, "origin", "new york", "JFK")
	pick(t, e, id, "destination", "london", "LHR")

	rec := do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/search", searchRequest{
		DepartureDate: "2024-07-01",
		TripType:      models.RoundTrip,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	if up.flights.Load() != 0 {
		t.Error("upstream called")
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	e, up := newTestServer(t)
	up.fail.Store(true)
	id := createSession(t, e)
	pick(t, e, id, "origin", "new york", "JFK")
	pick(t, e, id, "destination", "london", "LHR")

	rec := do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/search", searchRequest{DepartureDate: "2024-07-01"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	v := decode[models.SessionView](t, rec)
	if v.State.Status != models.StatusError || v.State.Message != "Too many requests" {
		t.Errorf("state = %+v", v.State)
	}
	if len(v.Results) != 0 {
		t.Errorf("results = %v", v.Results)
	}
}

func TestSelectUnknownSuggestion(t *testing.T) {
	e, _ := newTestServer(t)
	id := createSession(t, e)

	rec := do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/select", selectRequest{Field: "origin", Code: "JFK"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBadField(t *testing.T) {
	e, _ := newTestServer(t)
	id := createSession(t, e)

	rec := do(t, e, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?field=layover", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBadFilters(t *testing.T) {
	e, _ := newTestServer(t)
	id := createSession(t, e)
	base := "/api/v1/sessions/" + id + "/filters"

	for _, body := range []map[string]any{
		{"sort_by": "cheapest"},
		{"stops": 3},
		{"stops": "null"},
		{"max_price": -1},
	} {
		if rec := do(t, e, http.MethodPut, base, body); rec.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d", body, rec.Code)
		}
	}
}

func TestUnknownAndDeletedSession(t *testing.T) {
	e, _ := newTestServer(t)

	if rec := do(t, e, http.MethodGet, "/api/v1/sessions/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get unknown = %d", rec.Code)
	}

	id := createSession(t, e)
	if rec := do(t, e, http.MethodDelete, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d", rec.Code)
	}
	if rec := do(t, e, http.MethodDelete, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete twice = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}
