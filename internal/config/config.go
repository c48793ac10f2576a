package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the coordinates service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port of the public HTTP API.
// - HealthPort: The port of the monitoring server (healthz, metrics).
// - ShutdownTimeout: How long servers may take to drain on shutdown.
// - Provider: Settings of the optional geocoding provider.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env             string         // Env is the current environment: local, development, production.
	Port            int            // Port is the public API port.
	HealthPort      int            // HealthPort is the monitoring server port.
	ShutdownTimeout time.Duration  // ShutdownTimeout bounds graceful shutdown.
	Provider        ProviderConfig // Provider configures address geocoding.
	Database        PostgresConfig // Database holds the postgres database configuration
}

// ProviderConfig selects the geocoding provider. An empty Type disables geocoding.
type ProviderConfig struct {
	Type      string // Type is google, nominatim or empty.
	APIKey    string // APIKey is required by the Google provider.
	RateLimit int    // RateLimit is requests per second.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
	SSLMode  string // SSLMode is passed through to the connection string.
	MaxConns int32  // MaxConns caps the pool size.
}

// envBindings maps configuration keys to the environment variables that override them.
var envBindings = map[string]string{
	"env":                 "MERIDIAN_ENV",
	"port":                "MERIDIAN_PORT",
	"health_port":         "MERIDIAN_HEALTH_PORT",
	"shutdown_timeout":    "MERIDIAN_SHUTDOWN_TIMEOUT",
	"provider.type":       "MERIDIAN_PROVIDER_TYPE",
	"provider.api_key":    "MERIDIAN_PROVIDER_KEY",
	"provider.rate_limit": "MERIDIAN_PROVIDER_RATE_LIMIT",
	"postgres.host":       "DB_HOST",
	"postgres.port":       "DB_PORT",
	"postgres.user":       "DB_USERNAME",
	"postgres.password":   "DB_PASSWORD",
	"postgres.db_name":    "DB_NAME",
	"postgres.sslmode":    "DB_SSLMODE",
	"postgres.max_conns":  "DB_MAX_CONNS",
}

// MustLoad loads the configuration from the environment, an optional .env file
// and an optional YAML file named by MERIDIAN_CONFIG. Environment variables win
// over the file, the file wins over defaults. It panics on invalid values.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := viper.New()
	setDefaults(vpr)

	for key, env := range envBindings {
		_ = vpr.BindEnv(key, env)
	}

	if path, ok := os.LookupEnv("MERIDIAN_CONFIG"); ok && path != "" {
		vpr.SetConfigFile(path)
		vpr.SetConfigType("yaml")
		if err := vpr.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	port, err := strconv.Atoi(vpr.GetString("port"))
	if err != nil {
		panic("failed to parse port for api server from configuration")
	}

	healthPort, err := strconv.Atoi(vpr.GetString("health_port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	shutdownTimeout, err := time.ParseDuration(vpr.GetString("shutdown_timeout"))
	if err != nil {
		panic("failed to parse shutdown timeout from configuration")
	}

	rateLimit, err := strconv.Atoi(vpr.GetString("provider.rate_limit"))
	if err != nil {
		panic("failed to parse provider rate limit from configuration, must be an integer types")
	}

	maxConns, err := strconv.ParseInt(vpr.GetString("postgres.max_conns"), 10, 32)
	if err != nil {
		panic("failed to parse database max connections from configuration, must be an integer types")
	}

	return &Config{
		Env:             vpr.GetString("env"),
		Port:            port,
		HealthPort:      healthPort,
		ShutdownTimeout: shutdownTimeout,
		Provider: ProviderConfig{
			Type:      vpr.GetString("provider.type"),
			APIKey:    vpr.GetString("provider.api_key"),
			RateLimit: rateLimit,
		},
		Database: PostgresConfig{
			Host:     vpr.GetString("postgres.host"),
			Port:     vpr.GetString("postgres.port"),
			User:     vpr.GetString("postgres.user"),
			Password: vpr.GetString("postgres.password"),
			Name:     vpr.GetString("postgres.db_name"),
			SSLMode:  vpr.GetString("postgres.sslmode"),
			MaxConns: int32(maxConns),
		},
	}
}

func setDefaults(vpr *viper.Viper) {
	vpr.SetDefault("env", "production")
	vpr.SetDefault("port", "8080")
	vpr.SetDefault("health_port", "8081")
	vpr.SetDefault("shutdown_timeout", "10s")
	vpr.SetDefault("provider.type", "")
	vpr.SetDefault("provider.rate_limit", "1")
	vpr.SetDefault("postgres.port", "5432")
	vpr.SetDefault("postgres.sslmode", "disable")
	vpr.SetDefault("postgres.max_conns", "10")
}
