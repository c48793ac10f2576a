package repository

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/UnknownOlympus/meridian/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDatabase opens a pgx connection pool for the given configuration and
// verifies it with a ping. Connections are acquired per statement and
// returned to the pool when the statement completes.
func NewDatabase(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// ConnString builds a postgres URL from the configuration.
func ConnString(cfg config.PostgresConfig) string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}

	if cfg.SSLMode != "" {
		query := dsn.Query()
		query.Set("sslmode", cfg.SSLMode)
		dsn.RawQuery = query.Encode()
	}

	return dsn.String()
}
