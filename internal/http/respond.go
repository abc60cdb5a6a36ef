package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"hearth/internal/auth"
	"hearth/internal/core"
)

// writeJSON encodes the payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to the HTTP taxonomy: validation 400,
// missing entities 404, storage failures 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrUnknownRegistry),
		errors.Is(err, core.ErrEmptyLabel),
		errors.Is(err, core.ErrUnknownSource),
		errors.Is(err, core.ErrMissingSource),
		errors.Is(err, core.ErrInvalidExpectedDay),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrUnknownTable),
		errors.Is(err, core.ErrUnknownColumn):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeBadRequest reports a request-shape problem.
func writeBadRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// decode parses the JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// monthParam reads and validates a month from query or body value.
func monthParam(raw string) (core.Month, error) {
	return core.ParseMonth(raw)
}
