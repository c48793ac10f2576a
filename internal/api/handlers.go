package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/meridian/internal/models"
	"github.com/UnknownOlympus/meridian/internal/repository"
	"github.com/UnknownOlympus/meridian/internal/service"
)

const (
	msgNotFound      = "coordinates not found"
	msgInternal      = "internal server error"
	msgInvalidBody   = "invalid request body"
	msgMissingFields = "lat and lon are required"
	msgInvalidID     = "id must be an integer"
	msgEmptyAddress  = "address is required"
	msgNoAddress     = "address not found"
	msgGeocodingOff  = "geocoding is not configured"
)

// CoordinatesHandler serves the coordinates endpoints.
type CoordinatesHandler struct {
	svc service.Service
	log *slog.Logger
}

func NewCoordinatesHandler(svc service.Service, log *slog.Logger) *CoordinatesHandler {
	return &CoordinatesHandler{svc: svc, log: log}
}

// Create returns the stored record equal to the posted pair, inserting it first if needed.
func (h *CoordinatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CoordinatesInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.log, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, r, h.log, http.StatusUnprocessableEntity, msgMissingFields)
		return
	}

	record, _, err := h.svc.CreateOrFetch(r.Context(), *req.Lat, *req.Lon)
	if err != nil {
		h.log.ErrorContext(r.Context(), "Create coordinates failed", "error", err)
		writeError(w, r, h.log, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, record)
}

func (h *CoordinatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	record, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, id, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, record)
}

func (h *CoordinatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, r, id, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, okResponse{OK: true})
}

// Clear deletes every stored record.
func (h *CoordinatesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Clear(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "Clear tables failed", "error", err)
		writeError(w, r, h.log, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, okResponse{OK: true})
}

// Geocode resolves the posted address and stores the resulting pair like Create does.
func (h *CoordinatesHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	var req models.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.log, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}

	record, _, err := h.svc.CreateFromAddress(r.Context(), req.Address)
	switch {
	case err == nil:
		writeJSON(w, r, h.log, http.StatusOK, record)
	case errors.Is(err, service.ErrGeocodingDisabled):
		writeError(w, r, h.log, http.StatusNotImplemented, msgGeocodingOff)
	case errors.Is(err, service.ErrEmptyAddress):
		writeError(w, r, h.log, http.StatusUnprocessableEntity, msgEmptyAddress)
	case errors.Is(err, service.ErrAddressNotFound):
		writeError(w, r, h.log, http.StatusNotFound, msgNoAddress)
	default:
		h.log.ErrorContext(r.Context(), "Geocode coordinates failed", "error", err)
		writeError(w, r, h.log, http.StatusInternalServerError, msgInternal)
	}
}

func (h *CoordinatesHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, h.log, http.StatusUnprocessableEntity, msgInvalidID)
		return 0, false
	}

	return id, true
}

func (h *CoordinatesHandler) writeLookupError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, r, h.log, http.StatusNotFound, msgNotFound)
		return
	}

	h.log.ErrorContext(r.Context(), "Coordinates lookup failed", "id", id, "error", err)
	writeError(w, r, h.log, http.StatusInternalServerError, msgInternal)
}
