package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when an identifier-based lookup finds no record.
var ErrNotFound = errors.New("coordinates not found")

// Database is the subset of the pgxpool API used by the repository.
// It is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	FindByLatLon(ctx context.Context, lat, lon float64) ([]models.Coordinates, error)
	Insert(ctx context.Context, lat, lon float64) (*models.Coordinates, error)
	GetByID(ctx context.Context, id int64) (*models.Coordinates, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
