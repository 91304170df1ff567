package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"farmguardian/internal/logger"
	"farmguardian/internal/service/camera"
	"farmguardian/internal/service/detection"
	"farmguardian/internal/service/fleet"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeError maps known errors to status codes; anything else is logged and reported as 500.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fleet.ErrOffline):
		status = http.StatusConflict
	case errors.Is(err, camera.ErrNoDevice), errors.Is(err, detection.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
		writeJSON(w, logger, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}

// decodeJSON reads a JSON body into v and writes 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *logger.Logger, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}
