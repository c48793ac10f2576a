package geocoding

import (
	"context"

	"github.com/UnknownOlympus/meridian/internal/models"
)

// Provider resolves a free-form address to a coordinate pair.
// The returned Coordinates are not persisted and carry a nil ID.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}
