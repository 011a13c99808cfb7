// Package places is the client for the third-party maps provider: geocoding,
// place details and directions. Responses are decoded into typed structs; a
// non-OK provider status comes back as *StatusError.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/placesmcp/pkg/geo"
	"github.com/NERVsystems/placesmcp/pkg/version"
)

const (
	// DefaultBaseURL is the Google Maps Platform web service root
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	// maxErrorBody bounds how much of a failed HTTP body is kept for logs.
	maxErrorBody = 512
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey            string
	BaseURL           string
	UserAgent         string
	HTTPClient        *http.Client
	RequestsPerSecond float64 // <= 0 disables rate limiting
	Burst             int
	GeocodeCacheSize  int // <= 0 disables the geocode cache
	GeocodeCacheTTL   time.Duration
	Logger            *slog.Logger
}

// Client calls the provider's web services. It holds its own credential and
// is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	geocodes   *expirable.LRU[string, []GeocodeResult]
	logger     *slog.Logger
}

// NewClient creates a provider client
func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = version.UserAgent()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 30 * time.Second,
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	if opts.GeocodeCacheSize > 0 {
		c.geocodes = expirable.NewLRU[string, []GeocodeResult](opts.GeocodeCacheSize, nil, opts.GeocodeCacheTTL)
	}

	return c
}

// Configured reports whether the client has a credential.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Geocode resolves free text to candidate positions. ZERO_RESULTS is a valid
// empty answer, not an error.
func (c *Client) Geocode(ctx context.Context, address, language string) ([]GeocodeResult, error) {
	cacheKey := language + "|" + strings.ToLower(strings.TrimSpace(address))
	if c.geocodes != nil {
		if cached, ok := c.geocodes.Get(cacheKey); ok {
			c.logger.Debug("geocode cache hit", "address", address)
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("address", address)
	setLanguage(params, language)

	var resp GeocodeResponse
	if err := c.get(ctx, "geocode", "/geocode/json", params, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case StatusOK:
	case StatusZeroResults:
		return []GeocodeResult{}, nil
	default:
		return nil, &StatusError{Service: "geocode", Status: resp.Status, Message: resp.ErrorMessage}
	}

	results := make([]GeocodeResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Geometry.Location != nil {
			results = append(results, r)
		}
	}

	if c.geocodes != nil && len(results) > 0 {
		c.geocodes.Add(cacheKey, results)
	}
	return results, nil
}

// PlaceDetails fetches fields for a single place.
func (c *Client) PlaceDetails(ctx context.Context, placeID string, fields []string, language string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	setLanguage(params, language)

	var resp PlaceDetailsResponse
	if err := c.get(ctx, "details", "/place/details/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != StatusOK {
		return nil, &StatusError{Service: "details", Status: resp.Status, Message: resp.ErrorMessage}
	}
	if resp.Result == nil {
		return nil, &StatusError{Service: "details", Status: StatusUnknownError, Message: "response has no result"}
	}
	if resp.Result.PlaceID == "" {
		resp.Result.PlaceID = placeID
	}
	return resp.Result, nil
}

// Directions computes a route. Only an OK status returns a response; route and
// leg presence is left to the caller.
func (c *Client) Directions(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	params := url.Values{}
	params.Set("origin", req.Origin.String())
	params.Set("destination", req.Destination.String())
	if req.Mode != "" {
		params.Set("mode", req.Mode)
	}
	setLanguage(params, req.Language)

	var resp DirectionsResponse
	if err := c.get(ctx, "directions", "/directions/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != StatusOK {
		return nil, &StatusError{Service: "directions", Status: resp.Status, Message: resp.ErrorMessage}
	}
	return &resp, nil
}

// get performs a rate-limited GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, service, path string, params url.Values, out any) error {
	if !c.Configured() {
		return ErrMissingAPIKey
	}

	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", service, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", service, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s service: %w", service, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("provider request",
		"service", service,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Service:    service,
			Status:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    strings.TrimSpace(string(body)),
			HTTPStatus: resp.StatusCode,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", service, err)
	}
	return nil
}

func setLanguage(params url.Values, language string) {
	if language != "" {
		params.Set("language", language)
	}
}

// GeocodeLocation is a convenience for callers that only need the best match.
func GeocodeLocation(results []GeocodeResult) (geo.Coordinate, bool) {
	for _, r := range results {
		if r.Geometry.Location != nil {
			return r.Geometry.Location.Coordinate(), true
		}
	}
	return geo.Coordinate{}, false
}
