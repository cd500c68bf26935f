package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"procodus.dev/smarthome/internal/store"
)

func errInvalidBody(err error) error {
	return fmt.Errorf("%w: invalid request body: %v", store.ErrValidation, err)
}

func errMissingFields(fields string) error {
	return fmt.Errorf("%w: missing required fields: %s", store.ErrValidation, fields)
}

// writeJSON writes v as the JSON response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps a store error onto the HTTP contract: validation failures
// are client errors, missing records are 404, everything else is a
// persistence failure surfaced as a generic server error.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		h.logger.Debug("request rejected", "error", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		h.logger.Debug("resource not found", "error", err)
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("request failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
