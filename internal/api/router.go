package api

import (
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/meridian/internal/metrics"
	"github.com/UnknownOlympus/meridian/internal/service"
)

// NewRouter wires the coordinates handlers and returns the public API handler.
func NewRouter(svc service.Service, log *slog.Logger, appMetrics *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	handler := NewCoordinatesHandler(svc, log)

	// Both spellings are registered: ServeMux would otherwise answer the bare
	// path with a 301, which many clients follow as a GET without the body.
	mux.HandleFunc("POST /coordinates", handler.Create)
	mux.HandleFunc("POST /coordinates/{$}", handler.Create)
	mux.HandleFunc("POST /coordinates/geocode", handler.Geocode)
	mux.HandleFunc("GET /coordinates/{id}", handler.Get)
	mux.HandleFunc("DELETE /coordinates/{id}", handler.Delete)
	mux.HandleFunc("DELETE /clear_tables", handler.Clear)

	return observe(log, appMetrics, cors(mux))
}
