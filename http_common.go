package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine error taxonomy onto HTTP status codes.
// Store-unavailable gets 503 so clients know the request is retryable.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSwipe):
		writeError(w, http.StatusBadRequest, "invalid_swipe")
	case errors.Is(err, ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, ErrMatchNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_state")
	case errors.Is(err, ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
