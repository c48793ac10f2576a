package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

// okResponse acknowledges a successful delete.
type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorContext(r.Context(), "Failed to encode response", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, msg string) {
	writeJSON(w, r, log, status, errorResponse{Detail: msg})
}
