package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/meridian/internal/models"
	"golang.org/x/time/rate"
)

const (
	// NominatimBaseURL is the public OpenStreetMap search endpoint.
	NominatimBaseURL = "https://nominatim.openstreetmap.org/search"
	// NominatimUserAgent identifies the service, as required by the Nominatim usage policy.
	NominatimUserAgent = "Meridian-Coordinates-Service/1.0 (https://github.com/UnknownOlympus/meridian)"

	nominatimTimeout = 10 * time.Second
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// Requests are throttled to one per second unless another rate is configured.
type NominatimProvider struct {
	client    HTTPClient
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	log       *slog.Logger
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NominatimOption customizes a NominatimProvider.
type NominatimOption func(*NominatimProvider)

type nominatimResponse struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client HTTPClient) NominatimOption {
	return func(np *NominatimProvider) { np.client = client }
}

// WithBaseURL points the provider at a self-hosted Nominatim instance.
func WithBaseURL(baseURL string) NominatimOption {
	return func(np *NominatimProvider) { np.baseURL = baseURL }
}

// WithRateLimit sets the number of requests allowed per second.
func WithRateLimit(perSecond int) NominatimOption {
	return func(np *NominatimProvider) {
		np.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

// NewNominatimProvider creates a Nominatim provider for the public endpoint.
func NewNominatimProvider(log *slog.Logger, opts ...NominatimOption) *NominatimProvider {
	np := &NominatimProvider{
		client:    &http.Client{Timeout: nominatimTimeout},
		baseURL:   NominatimBaseURL,
		userAgent: NominatimUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		log:       log,
	}

	for _, opt := range opts {
		opt(np)
	}

	return np
}

// Geocode returns the top Nominatim match for the address.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{Lat: lat, Lon: lon}, nil
}
