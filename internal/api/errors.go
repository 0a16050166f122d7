package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"laci-tracker/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes. Unclassified errors
// become 500 with a generic body; the detail goes to the log only.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		notFound     *domain.NotFoundError
		validation   *domain.ValidationError
		accessDenied *domain.AccessDeniedError
		conflict     *domain.ConflictError
		unauth       *domain.UnauthenticatedError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message})
	case errors.As(err, &unauth):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: unauth.Message})
	case errors.As(err, &accessDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: accessDenied.Message})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Message})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: conflict.Message})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}
