package handler

import (
	"net/http"
	"sort"

	"farmguardian/internal/dto"
	"farmguardian/internal/logger"
	"farmguardian/internal/service"
	"farmguardian/internal/service/store"
)

var animalColors = map[string]string{
	"deer":   "#8B5A3C",
	"rabbit": "#A0522D",
	"bird":   "#228B22",
	"fox":    "#FF4500",
}

const defaultAnimalColor = "#666666"

// GetDetectionsHandler returns the rolling detection history, newest first.
func GetDetectionsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, manager.Window().Snapshot())
	}
}

// LatestDetectionHandler returns the detection behind the alert banner, or 204 when there is none.
func LatestDetectionHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, ok := manager.Window().Latest()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, logger, http.StatusOK, latest)
	}
}

// StatsHandler returns the aggregates shown on the statistics panel.
func StatsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, BuildStats(manager.Window()))
	}
}

// BuildStats computes the statistics payload from the window: a dense 24-hour series
// and one distribution slice per label, largest first.
func BuildStats(window *store.Window) dto.Stats {
	byHour := window.CountsByHour()
	hourly := make([]dto.HourBucket, 24)
	for h := range hourly {
		hourly[h] = dto.HourBucket{Hour: h, Count: byHour[h]}
	}

	byLabel := window.CountsByLabel()
	distribution := make([]dto.LabelSlice, 0, len(byLabel))
	for label, count := range byLabel {
		color, ok := animalColors[label]
		if !ok {
			color = defaultAnimalColor
		}
		distribution = append(distribution, dto.LabelSlice{Name: label, Value: count, Color: color})
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Value != distribution[j].Value {
			return distribution[i].Value > distribution[j].Value
		}
		return distribution[i].Name < distribution[j].Name
	})

	activeAlerts := 0
	if _, ok := window.Latest(); ok {
		activeAlerts = 1
	}

	return dto.Stats{
		TotalDetections:   window.Count(),
		ActiveAlerts:      activeAlerts,
		SpeciesDetected:   len(byLabel),
		AverageConfidence: window.MeanConfidence(),
		Hourly:            hourly,
		Distribution:      distribution,
	}
}
