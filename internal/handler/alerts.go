package handler

import (
	"net/http"

	"farmguardian/internal/logger"
	"farmguardian/internal/service/notify"
)

// GetAlertsHandler returns the alert preferences.
func GetAlertsHandler(settings *notify.SettingsStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, settings.Get())
	}
}

// UpdateAlertsHandler applies a partial update to the alert preferences.
func UpdateAlertsHandler(settings *notify.SettingsStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update notify.SettingsUpdate
		if !decodeJSON(w, r, logger, &update) {
			return
		}
		current := settings.Apply(update)
		logger.Info("Alert settings updated: alerts=%v sound=%v", current.AlertsEnabled, current.SoundEnabled)
		writeJSON(w, logger, http.StatusOK, current)
	}
}

// TestNotificationHandler sends a test push notification.
func TestNotificationHandler(notifier notify.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !notify.Enabled(notifier) {
			writeJSON(w, logger, http.StatusServiceUnavailable, map[string]string{"error": "notifications are not configured"})
			return
		}
		if err := notifier.TestNotification(r.Context()); err != nil {
			logger.Warning("Test notification failed: %v", err)
			writeJSON(w, logger, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "sent"})
	}
}
