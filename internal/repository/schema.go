package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS coordinates (
		id  BIGSERIAL PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS ix_coordinates_lat ON coordinates (lat);`,
	`CREATE INDEX IF NOT EXISTS ix_coordinates_lon ON coordinates (lon);`,
}

// InitSchema creates the coordinates table and its indexes if they do not exist.
// It is safe to call on every startup.
func (r *Repository) InitSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema, statement #%d: %w", i+1, err)
		}
	}

	r.log.DebugContext(ctx, "Database schema is ready", "statements", len(schemaStatements))

	return nil
}
