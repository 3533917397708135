package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adoptly/adoptly/internal/errs"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

// respondError maps domain errors to HTTP statuses; unknown errors become an
// opaque 500 so internals never leak into responses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, errs.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
