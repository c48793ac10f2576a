package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/jackc/pgx/v5"
)

// FindByLatLon returns every record whose latitude and longitude are exactly
// equal to the given values. The order of the result is not defined.
func (r *Repository) FindByLatLon(ctx context.Context, lat, lon float64) ([]models.Coordinates, error) {
	var found []models.Coordinates
	query := `
		SELECT id, lat, lon
		FROM coordinates
		WHERE lat = $1 AND lon = $2;
	`

	rows, err := r.db.Query(ctx, query, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("failed to query coordinates by value: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id     int64
			record models.Coordinates
		)
		if errScan := rows.Scan(&id, &record.Lat, &record.Lon); errScan != nil {
			return nil, fmt.Errorf("failed to scan coordinates: %w", errScan)
		}
		record.ID = &id
		found = append(found, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return found, nil
}

// Insert stores a new record and returns it with the identifier assigned by the database.
func (r *Repository) Insert(ctx context.Context, lat, lon float64) (*models.Coordinates, error) {
	query := `
		INSERT INTO coordinates (lat, lon)
		VALUES ($1, $2)
		RETURNING id;
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, lat, lon).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to insert coordinates: %w", err)
	}

	r.log.DebugContext(ctx, "Coordinates inserted", "id", id, "lat", lat, "lon", lon)

	return models.NewCoordinates(id, lat, lon), nil
}

// GetByID returns the record with the given identifier or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Coordinates, error) {
	query := `
		SELECT id, lat, lon
		FROM coordinates
		WHERE id = $1;
	`

	var lat, lon float64
	err := r.db.QueryRow(ctx, query, id).Scan(&id, &lat, &lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coordinates: %w", err)
	}

	return models.NewCoordinates(id, lat, lon), nil
}

// DeleteByID removes the record with the given identifier.
// It returns ErrNotFound when no row was deleted.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	query := `
		DELETE FROM coordinates
		WHERE id = $1;
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete coordinates: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAll removes every record and reports how many rows were deleted.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	query := `DELETE FROM coordinates;`

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear coordinates: %w", err)
	}

	return tag.RowsAffected(), nil
}
