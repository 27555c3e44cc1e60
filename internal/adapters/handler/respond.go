package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: failed to write response: %v", err)
	}
}

// respondError maps domain error kinds to HTTP statuses. Store
// failures are logged and answered with a generic message; raw store
// error text never reaches the caller.
func respondError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		authErr       *domain.AuthorizationError
		windowErr     *domain.OutsideWindowError
		lockedErr     *domain.LockedStateError
		conflictErr   *domain.ConflictError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &windowErr),
		errors.As(err, &lockedErr),
		errors.As(err, &conflictErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &authErr):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		log.Printf("handler: internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return false
	}
	return true
}
