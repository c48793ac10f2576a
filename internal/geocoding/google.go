package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/meridian/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider turns free-form addresses into coordinate pairs using the
// Google Maps Geocoding API. It only resolves locations; persisting them and
// deduplicating against stored records is left to the caller.
type GoogleProvider struct {
	client GoogleAPIClient // client sends geocoding requests to Google Maps
	log    *slog.Logger    // log receives debug output for every lookup
}

// GoogleAPIClient is the subset of *maps.Client used by GoogleProvider.
// It is satisfied by the real client and by test doubles.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider returns a provider backed by client.
// The client is expected to be configured already (API key, rate limit),
// see NewProvider for the way the service builds one from configuration.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode resolves address and returns an unsaved coordinate record (nil ID).
//
// Google may answer with several candidates. The first exact match wins; when
// every candidate is a partial match the first one is used, so ambiguous input
// still yields a location. Transport and API errors are wrapped, and a reply
// without candidates returns ErrEmptyResponse.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	results, err := gp.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	best := bestGoogleResult(results)
	gp.log.DebugContext(ctx, "Google Maps resolved address",
		"address", address,
		"formatted_address", best.FormattedAddress,
		"partial_match", best.PartialMatch,
		"candidates", len(results),
	)

	return &models.Coordinates{Lat: best.Geometry.Location.Lat, Lon: best.Geometry.Location.Lng}, nil
}

// bestGoogleResult picks the first non-partial result, falling back to the first one.
func bestGoogleResult(results []maps.GeocodingResult) maps.GeocodingResult {
	for _, result := range results {
		if !result.PartialMatch {
			return result
		}
	}

	return results[0]
}
