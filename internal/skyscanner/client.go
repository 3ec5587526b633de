package skyscanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/internal/ratelimit"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

const (
	DefaultBaseURL = "https://sky-scrapper.p.rapidapi.com"
	DefaultHost    = "sky-scrapper.p.rapidapi.com"

	airportPath = "/api/v1/flights/searchAirport"
	flightsPath = "/api/v2/flights/searchFlightsWebComplete"

	airportFailure = "Airport search failed"
	flightFailure  = "Flight search failed"

	maxBodyBytes = 10 << 20
)

type Config struct {
	BaseURL string
	APIKey  string
	APIHost string
	Timeout time.Duration
	Limiter *ratelimit.EndpointLimiter
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the Sky Scrapper API. It makes exactly one attempt per
// call; retrying is left to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	limiter    *ratelimit.EndpointLimiter
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIHost == "" {
		cfg.APIHost = DefaultHost
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiHost:    cfg.APIHost,
		limiter:    cfg.Limiter,
		httpClient: httpClient,
		logger:     log.Named("skyscanner"),
	}
}

// SearchAirports returns airport suggestions for query. A response whose
// shape does not match the contract yields no suggestions rather than an
// error; HTTP and transport failures are returned as *models.UpstreamError.
func (c *Client) SearchAirports(ctx context.Context, query string) ([]models.Airport, error) {
	params := url.Values{
		"query":  {query},
		"locale": {"en-US"},
	}

	body, err := c.get(ctx, ratelimit.EndpointAirports, airportPath, params, airportFailure)
	if err != nil {
		return nil, err
	}

	items, merr := decodeAirportItems(body)
	if merr != nil {
		c.logger.Warn("Discarding airport suggestions",
			logger.String("query", query),
			logger.Error(merr),
		)
		return []models.Airport{}, nil
	}

	airports := make([]models.Airport, 0, len(items))
	for _, it := range items {
		airports = append(airports, it.airport())
	}
	return airports, nil
}

func decodeAirportItems(body []byte) ([]airportItem, error) {
	var env airportEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &models.MalformedResponseError{Endpoint: airportPath, Reason: err.Error()}
	}
	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &models.MalformedResponseError{Endpoint: airportPath, Reason: "data is not an array"}
	}
	var items []airportItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &models.MalformedResponseError{Endpoint: airportPath, Reason: err.Error()}
	}
	return items, nil
}

// SearchItineraries runs a complete flight search for criteria. The
// criteria are only read.
func (c *Client) SearchItineraries(ctx context.Context, criteria models.SearchCriteria) (*SearchResponse, error) {
	body, err := c.get(ctx, ratelimit.EndpointFlights, flightsPath, itineraryParams(criteria), flightFailure)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.UpstreamError{
			Status:  http.StatusOK,
			Message: flightFailure + ": invalid response body",
		}
	}
	return &resp, nil
}

func itineraryParams(c models.SearchCriteria) url.Values {
	adults := c.Passengers
	if adults <= 0 {
		adults = models.MinPassengers
	}
	cabin := c.CabinClass
	if cabin == "" {
		cabin = models.DefaultCabinClass
	}

	params := url.Values{
		"originSkyId":         {c.OriginSkyID},
		"destinationSkyId":    {c.DestinationSkyID},
		"originEntityId":      {firstNonEmpty(c.OriginEntityID, c.OriginSkyID)},
		"destinationEntityId": {firstNonEmpty(c.DestinationEntityID, c.DestinationSkyID)},
		"date":                {c.DepartureDate},
		"adults":              {strconv.Itoa(adults)},
		"cabinClass":          {cabin},
		"currency":            {"USD"},
		"market":              {"en-US"},
		"countryCode":         {"US"},
	}
	if c.ReturnDate != nil && *c.ReturnDate != "" {
		params.Set("returnDate", *c.ReturnDate)
	}
	return params
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, failure string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return nil, &models.UpstreamError{Message: fmt.Sprintf("%s: %v", failure, err)}
		}
	}

	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("skyscanner: creating request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
		return nil, &models.UpstreamError{Message: fmt.Sprintf("%s: %v", failure, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &models.UpstreamError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s: reading response: %v", failure, err),
		}
	}

	c.logger.Debug("Upstream request",
		logger.String("endpoint", endpoint),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := failure
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		return nil, &models.UpstreamError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}
