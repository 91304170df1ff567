package handler

import (
	"net/http"

	"farmguardian/internal/logger"
	"farmguardian/internal/service/fleet"
)

type intensityRequest struct {
	Intensity *int `json:"intensity"`
}

// ListDevicesHandler returns every deterrent device.
func ListDevicesHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, registry.Devices())
	}
}

// ToggleDeviceHandler switches one device on or off.
func ToggleDeviceHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := registry.Toggle(r.PathValue("id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		logger.Info("Device %s active=%v", device.ID, device.Active)
		writeJSON(w, logger, http.StatusOK, device)
	}
}

// SetIntensityHandler sets a device's intensity; values outside 0-100 are clamped.
func SetIntensityHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intensityRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		if req.Intensity == nil {
			writeJSON(w, logger, http.StatusBadRequest, map[string]string{"error": "intensity is required"})
			return
		}

		device, err := registry.SetIntensity(r.PathValue("id"), *req.Intensity)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, device)
	}
}

// EmergencyHandler activates every online deterrent.
func EmergencyHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devices := registry.Emergency()
		logger.Warning("🚨 Emergency mode activated: %d device(s) running", registry.ActiveDevices())
		writeJSON(w, logger, http.StatusOK, devices)
	}
}

// DeactivateAllHandler switches every deterrent off.
func DeactivateAllHandler(registry *fleet.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devices := registry.DeactivateAll()
		logger.Info("All deterrent devices deactivated")
		writeJSON(w, logger, http.StatusOK, devices)
	}
}
