package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/apitienda/store-api/internal/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("Failed to encode response body")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unmapped is treated as an internal failure and logged, with the
// detail withheld from the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrUnauthorized):
		writeJSONError(w, "unauthorized", err.Error(), http.StatusUnauthorized)
	case errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrUserNotFound):
		writeJSONError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, errors.ErrBadRequest),
		errors.Is(err, errors.ErrWeakPassword),
		errors.Is(err, errors.ErrPasswordReused),
		errors.Is(err, errors.ErrEmailNotVerified),
		errors.Is(err, errors.ErrAlreadyVerified):
		writeJSONError(w, "bad_request", err.Error(), http.StatusBadRequest)
	default:
		log.Err(err).Msg("Request failed")
		writeJSONError(w, "internal_error", "Internal server error", http.StatusInternalServerError)
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
