package api_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UnknownOlympus/meridian/internal/api"
	"github.com/UnknownOlympus/meridian/internal/metrics"
	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/UnknownOlympus/meridian/internal/repository"
	"github.com/UnknownOlympus/meridian/internal/service"
	"github.com/UnknownOlympus/meridian/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.Service, *metrics.Metrics) {
	t.Helper()
	mockSvc := mocks.NewService(t)
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	return api.NewRouter(mockSvc, slog.Default(), appMetrics), mockSvc, appMetrics
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestCreateCoordinates(t *testing.T) {
	t.Run("new coordinates", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("CreateOrFetch", mock.Anything, 1.0, 2.0).
			Return(models.NewCoordinates(1, 1.0, 2.0), true, nil).Once()

		rec := serve(router, http.MethodPost, "/coordinates/", `{"lat":1.0,"lon":2.0}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":1,"lat":1.0,"lon":2.0}`, rec.Body.String())
	})

	t.Run("path without trailing slash", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("CreateOrFetch", mock.Anything, 3.0, 4.0).
			Return(models.NewCoordinates(2, 3.0, 4.0), true, nil).Once()

		rec := serve(router, http.MethodPost, "/coordinates", `{"lat":3.0,"lon":4.0}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
		assert.JSONEq(t, `{"id":2,"lat":3.0,"lon":4.0}`, rec.Body.String())
	})

	t.Run("existing coordinates keep their id", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("CreateOrFetch", mock.Anything, 1.0, 2.0).
			Return(models.NewCoordinates(1, 1.0, 2.0), true, nil).Once()
		mockSvc.On("CreateOrFetch", mock.Anything, 1.0, 2.0).
			Return(models.NewCoordinates(1, 1.0, 2.0), false, nil).Once()

		first := serve(router, http.MethodPost, "/coordinates/", `{"lat":1.0,"lon":2.0}`)
		second := serve(router, http.MethodPost, "/coordinates/", `{"lat":1.0,"lon":2.0}`)

		require.Equal(t, http.StatusOK, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
	})

	t.Run("zero is a valid coordinate", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("CreateOrFetch", mock.Anything, 0.0, 0.0).
			Return(models.NewCoordinates(5, 0, 0), true, nil).Once()

		rec := serve(router, http.MethodPost, "/coordinates/", `{"lat":0,"lon":0}`)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/coordinates/", `{"lat":"north"}`)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"detail":"invalid request body"}`, rec.Body.String())
	})

	t.Run("missing field", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/coordinates/", `{"lat":1.0}`)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"detail":"lat and lon are required"}`, rec.Body.String())
	})

	t.Run("storage failure", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("CreateOrFetch", mock.Anything, 1.0, 2.0).Return(nil, false, assert.AnError).Once()

		rec := serve(router, http.MethodPost, "/coordinates/", `{"lat":1.0,"lon":2.0}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"internal server error"}`, rec.Body.String())
	})
}

func TestReadCoordinates(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Get", mock.Anything, int64(3)).Return(models.NewCoordinates(3, 50.45, 30.52), nil).Once()

		rec := serve(router, http.MethodGet, "/coordinates/3", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":3,"lat":50.45,"lon":30.52}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Get", mock.Anything, int64(9999)).Return(nil, repository.ErrNotFound).Once()

		rec := serve(router, http.MethodGet, "/coordinates/9999", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"coordinates not found"}`, rec.Body.String())
	})

	t.Run("non integer id", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		rec := serve(router, http.MethodGet, "/coordinates/abc", "")

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Get", mock.Anything, int64(3)).Return(nil, assert.AnError).Once()

		rec := serve(router, http.MethodGet, "/coordinates/3", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDeleteCoordinates(t *testing.T) {
	t.Run("deleted then not found", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Delete", mock.Anything, int64(3)).Return(nil).Once()
		mockSvc.On("Get", mock.Anything, int64(3)).Return(nil, repository.ErrNotFound).Once()

		rec := serve(router, http.MethodDelete, "/coordinates/3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		rec = serve(router, http.MethodGet, "/coordinates/3", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Delete", mock.Anything, int64(9999)).Return(repository.ErrNotFound).Once()

		rec := serve(router, http.MethodDelete, "/coordinates/9999", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"coordinates not found"}`, rec.Body.String())
	})
}

func TestClearTables(t *testing.T) {
	router, mockSvc, _ := newTestRouter(t)
	mockSvc.On("Clear", mock.Anything).Return(int64(3), nil).Once()
	mockSvc.On("Clear", mock.Anything).Return(int64(0), nil).Once()

	for range 2 {
		rec := serve(router, http.MethodDelete, "/clear_tables", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}

	t.Run("storage failure", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Clear", mock.Anything).Return(int64(0), assert.AnError).Once()

		rec := serve(router, http.MethodDelete, "/clear_tables", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGeocodeCoordinates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "disabled", err: service.ErrGeocodingDisabled, wantStatus: http.StatusNotImplemented},
		{name: "empty address", err: service.ErrEmptyAddress, wantStatus: http.StatusUnprocessableEntity},
		{
			name:       "unknown address",
			err:        fmt.Errorf("%w: Atlantis", service.ErrAddressNotFound),
			wantStatus: http.StatusNotFound,
		},
		{name: "provider failure", err: assert.AnError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockSvc, _ := newTestRouter(t)
			mockSvc.On("CreateFromAddress", mock.Anything, "Atlantis").Return(nil, false, tt.err).Once()

			rec := serve(router, http.MethodPost, "/coordinates/geocode", `{"address":"Atlantis"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	t.Run("stored", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("CreateFromAddress", mock.Anything, "Kyiv").
			Return(models.NewCoordinates(8, 50.45, 30.52), true, nil).Once()

		rec := serve(router, http.MethodPost, "/coordinates/geocode", `{"address":"Kyiv"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Coordinates
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(8), *got.ID)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodPut, "/coordinates/3", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Run("preflight", func(t *testing.T) {
		router, _, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodOptions, "/coordinates/", nil)
		req.Header.Set("Origin", "https://maps.example.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Custom")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://maps.example.test", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
		assert.Equal(t, "Content-Type, X-Custom", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("simple request", func(t *testing.T) {
		router, mockSvc, _ := newTestRouter(t)
		mockSvc.On("Get", mock.Anything, int64(1)).Return(models.NewCoordinates(1, 1, 2), nil).Once()
		req := httptest.NewRequest(http.MethodGet, "/coordinates/1", nil)
		req.Header.Set("Origin", "https://maps.example.test")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://maps.example.test", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestMetrics(t *testing.T) {
	router, mockSvc, appMetrics := newTestRouter(t)
	mockSvc.On("Get", mock.Anything, int64(9999)).Return(nil, repository.ErrNotFound).Once()

	serve(router, http.MethodGet, "/coordinates/9999", "")

	counter := appMetrics.HTTPRequests.WithLabelValues(http.MethodGet, "GET /coordinates/{id}", "404")
	assert.InDelta(t, 1, testutil.ToFloat64(counter), 0)
	assert.Zero(t, testutil.ToFloat64(appMetrics.InFlightRequests))
}
