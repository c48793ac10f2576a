package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/meridian/internal/api"
	"github.com/UnknownOlympus/meridian/internal/config"
	"github.com/UnknownOlympus/meridian/internal/geocoding"
	"github.com/UnknownOlympus/meridian/internal/metrics"
	"github.com/UnknownOlympus/meridian/internal/repository"
	"github.com/UnknownOlympus/meridian/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// errAPIServerStopped is returned when the API server exits before shutdown was requested.
var errAPIServerStopped = errors.New("api server stopped unexpectedly")

func main() {
	// Canceled on SIGINT/SIGTERM to trigger graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}

// run wires the application together and blocks until ctx is canceled or the
// API server stops on its own. A failed API listener is returned as an error
// so that main can exit non-zero; the monitoring server only logs its failures.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer dtb.Close()

	repo := repository.NewRepository(dtb, logger)

	// Schema creation runs once, before any request is accepted.
	if err = repo.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Provider.Type),
		APIKey:    cfg.Provider.APIKey,
		RateLimit: cfg.Provider.RateLimit,
		Logger:    logger,
	})
	switch {
	case errors.Is(err, geocoding.ErrProviderDisabled):
		logger.InfoContext(ctx, "Geocoding provider disabled")
	case err != nil:
		return fmt.Errorf("failed to create geocoding provider: %w", err)
	default:
		logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider.Type)
	}

	coordService := service.NewCoordinateService(logger, repo, geoProvider, cfg.Provider.Type, appMetrics)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(coordService, logger, appMetrics),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	monitoringServer := newMonitoringServer(ctx, logger, reg, dtb, cfg.HealthPort)

	apiErr := make(chan error, 1)
	go func() {
		apiErr <- serve(ctx, logger, "api", apiServer)
	}()
	go func() {
		if serveErr := serve(ctx, logger, "monitoring", monitoringServer); serveErr != nil {
			logger.ErrorContext(ctx, "Monitoring server failed", "error", serveErr)
		}
	}()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "port", cfg.Port)

	runErr := waitForStop(ctx, apiErr)
	if runErr == nil {
		logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	for name, srv := range map[string]*http.Server{"api": apiServer, "monitoring": monitoringServer} {
		if err = srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "Server shutdown failed", "server", name, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")

	return nil
}

// waitForStop blocks until ctx is canceled or the API server returns.
// It returns nil on cancellation and an error when the server stopped first,
// even if the server itself reported no error.
func waitForStop(ctx context.Context, apiErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-apiErr:
		if err == nil {
			return errAPIServerStopped
		}
		return err
	}
}

// serve runs srv until it is shut down. http.ErrServerClosed is not treated as a failure.
func serve(ctx context.Context, log *slog.Logger, name string, srv *http.Server) error {
	log.InfoContext(ctx, "Starting server", "server", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server failed: %w", name, err)
	}

	return nil
}

// pinger is the part of the connection pool the health check needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// newMonitoringServer builds the server exposing health check and metrics endpoints.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A database handle used by the health check (ping).
// - port: The port number on which the server will listen.
func newMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb pinger,
	port int,
) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if err := dtb.Ping(req.Context()); err != nil {
			log.WarnContext(ctx, "Health check failed", "error", err)
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       slog.LevelWarn,
			ReplaceAttr: dropTime,
		}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       slog.LevelError,
			ReplaceAttr: dropTime,
		}))

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
