package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnknownOlympus/meridian/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		env          string
		debugEnabled bool
		warnEnabled  bool
	}{
		{env: envLocal, debugEnabled: true, warnEnabled: true},
		{env: envDev, debugEnabled: false, warnEnabled: true},
		{env: envProd, debugEnabled: false, warnEnabled: true},
		{env: "unknown", debugEnabled: false, warnEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			logger := setupLogger(tt.env)

			assert.Equal(t, tt.debugEnabled, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warnEnabled, logger.Enabled(ctx, slog.LevelWarn))
			assert.True(t, logger.Enabled(ctx, slog.LevelError))
		})
	}
}

func TestServe_ReturnsErrorWhenPortIsTaken(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	srv := &http.Server{Addr: listener.Addr().String(), ReadHeaderTimeout: readHeaderTimeout}

	err = serve(context.Background(), slog.New(slog.DiscardHandler), "api", srv)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api server failed")
}

func TestServe_ReturnsNilAfterShutdown(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", ReadHeaderTimeout: readHeaderTimeout}
	require.NoError(t, srv.Shutdown(context.Background()))

	err := serve(context.Background(), slog.New(slog.DiscardHandler), "api", srv)

	assert.NoError(t, err)
}

func TestWaitForStop(t *testing.T) {
	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, waitForStop(ctx, make(chan error)))
	})

	t.Run("api server failed", func(t *testing.T) {
		apiErr := make(chan error, 1)
		apiErr <- assert.AnError

		assert.ErrorIs(t, waitForStop(context.Background(), apiErr), assert.AnError)
	})

	t.Run("api server returned without error", func(t *testing.T) {
		apiErr := make(chan error, 1)
		apiErr <- nil

		assert.ErrorIs(t, waitForStop(context.Background(), apiErr), errAPIServerStopped)
	})
}

func TestMonitoringServer(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	t.Run("server settings", func(t *testing.T) {
		srv := newMonitoringServer(ctx, logger, prometheus.NewRegistry(), stubPinger{}, 9090)

		assert.Equal(t, ":9090", srv.Addr)
		assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
		assert.Equal(t, readTimeout, srv.ReadTimeout)
		assert.Equal(t, writeTimeout, srv.WriteTimeout)
	})

	t.Run("healthz ok", func(t *testing.T) {
		srv := newMonitoringServer(ctx, logger, prometheus.NewRegistry(), stubPinger{}, 0)
		rec := httptest.NewRecorder()

		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("healthz db ping failed", func(t *testing.T) {
		srv := newMonitoringServer(ctx, logger, prometheus.NewRegistry(), stubPinger{err: assert.AnError}, 0)
		rec := httptest.NewRecorder()

		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "DB ping failed", rec.Body.String())
	})

	t.Run("metrics exposes registered collectors", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		appMetrics := metrics.NewMetrics(reg)
		appMetrics.CoordinatesDeleted.Inc()

		srv := newMonitoringServer(ctx, logger, reg, stubPinger{}, 0)
		rec := httptest.NewRecorder()

		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "coordinates_deleted_total 1")
	})
}
