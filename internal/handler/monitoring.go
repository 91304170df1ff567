package handler

import (
	"context"
	"net/http"

	"farmguardian/internal/logger"
	"farmguardian/internal/service"
)

// StatusHandler reports the monitoring session.
func StatusHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

// StartMonitoringHandler starts monitoring. The session outlives the request.
func StartMonitoringHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := manager.StartMonitoring(context.WithoutCancel(r.Context())); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

// StopMonitoringHandler stops monitoring and releases the camera.
func StopMonitoringHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := manager.StopMonitoring(); err != nil {
			logger.Warning("Stop monitoring: %v", err)
		}
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}
