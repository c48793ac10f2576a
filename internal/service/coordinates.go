package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/meridian/internal/geocoding"
	"github.com/UnknownOlympus/meridian/internal/metrics"
	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/UnknownOlympus/meridian/internal/repository"
)

var (
	// ErrGeocodingDisabled is returned by CreateFromAddress when no provider is configured.
	ErrGeocodingDisabled = errors.New("geocoding is disabled")
	// ErrEmptyAddress is returned by CreateFromAddress for a blank address.
	ErrEmptyAddress = errors.New("address is empty")
	// ErrAddressNotFound is returned when the provider has no match for the address.
	ErrAddressNotFound = errors.New("address not found")
)

// Service is the set of operations exposed over HTTP.
type Service interface {
	CreateOrFetch(ctx context.Context, lat, lon float64) (*models.Coordinates, bool, error)
	Get(ctx context.Context, id int64) (*models.Coordinates, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) (int64, error)
	CreateFromAddress(ctx context.Context, address string) (*models.Coordinates, bool, error)
}

// CoordinateService implements Service on top of the repository and an
// optional geocoding provider.
type CoordinateService struct {
	log          *slog.Logger         // Logger for logging service activities
	repo         repository.Interface // Interface for data repository access
	provider     geocoding.Provider   // Geocoding provider, nil when disabled
	providerName string               // Name of the provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking service performance
}

// NewCoordinateService creates a new instance of CoordinateService.
// A nil provider disables CreateFromAddress.
func NewCoordinateService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
) *CoordinateService {
	return &CoordinateService{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
	}
}

// CreateOrFetch returns the first stored record equal to (lat, lon), or inserts
// a new one when there is none. The boolean reports whether a row was inserted.
//
// The lookup and the insert are separate statements, so two concurrent calls with
// the same pair may both insert.
func (cs *CoordinateService) CreateOrFetch(ctx context.Context, lat, lon float64) (*models.Coordinates, bool, error) {
	found, err := cs.repo.FindByLatLon(ctx, lat, lon)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up coordinates: %w", err)
	}

	if len(found) > 0 {
		existing := found[0]
		cs.log.InfoContext(ctx, "Existing value", "id", *existing.ID, "lat", lat, "lon", lon)
		cs.metrics.CoordinatesCreated.WithLabelValues("existing").Inc()
		return &existing, false, nil
	}

	cs.log.InfoContext(ctx, "Writing to DB", "lat", lat, "lon", lon)
	created, err := cs.repo.Insert(ctx, lat, lon)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store coordinates: %w", err)
	}
	cs.metrics.CoordinatesCreated.WithLabelValues("inserted").Inc()

	return created, true, nil
}

// Get returns the record with the given id or repository.ErrNotFound.
func (cs *CoordinateService) Get(ctx context.Context, id int64) (*models.Coordinates, error) {
	return cs.repo.GetByID(ctx, id)
}

// Delete removes the record with the given id or returns repository.ErrNotFound.
func (cs *CoordinateService) Delete(ctx context.Context, id int64) error {
	if err := cs.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	cs.metrics.CoordinatesDeleted.Inc()
	cs.log.InfoContext(ctx, "Coordinates deleted", "id", id)

	return nil
}

// Clear removes every record. Clearing an empty store succeeds.
func (cs *CoordinateService) Clear(ctx context.Context) (int64, error) {
	deleted, err := cs.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	cs.metrics.CoordinatesDeleted.Add(float64(deleted))
	cs.log.InfoContext(ctx, "Coordinates table cleared", "deleted", deleted)

	return deleted, nil
}

// CreateFromAddress geocodes the address and stores the result with CreateOrFetch.
func (cs *CoordinateService) CreateFromAddress(
	ctx context.Context,
	address string,
) (*models.Coordinates, bool, error) {
	if cs.provider == nil {
		return nil, false, ErrGeocodingDisabled
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false, ErrEmptyAddress
	}

	startTime := time.Now()
	coords, err := cs.provider.Geocode(ctx, address)
	cs.metrics.GeocodeSeconds.WithLabelValues(cs.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		if errors.Is(err, geocoding.ErrEmptyResponse) || errors.Is(err, geocoding.ErrNominatimEmptyResponse) {
			cs.log.InfoContext(ctx, "Address could not be resolved", "address", address)
			return nil, false, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
		}

		cs.metrics.GeocodeErrors.Inc()
		cs.log.ErrorContext(ctx, "Failed to geocode", "address", address, "error", err)
		return nil, false, fmt.Errorf("failed to geocode address: %w", err)
	}

	return cs.CreateOrFetch(ctx, coords.Lat, coords.Lon)
}
