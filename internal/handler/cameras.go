package handler

import (
	"net/http"

	"farmguardian/internal/logger"
	"farmguardian/internal/service/fleet"
)

type addCameraRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// ListCamerasHandler returns the camera grid.
func ListCamerasHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, registry.Cameras())
	}
}

// AddCameraHandler registers a new camera. An empty body gets the default name and location.
func AddCameraHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCameraRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, logger, &req) {
			return
		}

		cam := registry.AddCamera(req.Name, req.Location)
		logger.Info("Camera %s added: %s", cam.ID, cam.Name)
		writeJSON(w, logger, http.StatusCreated, cam)
	}
}

// ToggleCameraHandler starts or stops monitoring on one camera. Offline cameras answer 409.
func ToggleCameraHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam, err := registry.ToggleMonitoring(r.PathValue("id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}

		state := "inactive"
		if cam.Monitoring {
			state = "actively monitoring"
		}
		logger.Info("%s is now %s", cam.Name, state)
		writeJSON(w, logger, http.StatusOK, cam)
	}
}
