package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tropicaldog17/folio/internal/auth"
	apperrors "github.com/tropicaldog17/folio/internal/errors"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var cfgErr *apperrors.ConfigurationError
	var schemaErr *apperrors.SchemaMismatchError
	var authErr *auth.APIError
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrNotInitialized), errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable
	case apperrors.IsNetwork(err):
		return http.StatusBadGateway
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &authErr):
		if authErr.StatusCode >= 400 && authErr.StatusCode < 500 {
			return authErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
