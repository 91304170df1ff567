package handler

import (
	"net/http"
	"strconv"
	"time"

	"farmguardian/internal/dto"
	"farmguardian/internal/logger"
	"farmguardian/internal/model"
	"farmguardian/internal/repository"
)

const defaultArchivePageSize = 24

// GetArchiveHandler returns a filtered page of archived detections.
func GetArchiveHandler(detectionRepo repository.DetectionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultArchivePageSize)

		filter := &dto.ArchiveFilter{
			Camera:     q.Get("camera"),
			AnimalType: q.Get("animal"),
			After:      parseDate(q.Get("dateAfter")),
			Before:     endOfDay(parseDate(q.Get("dateBefore"))),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		detections, err := detectionRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying archive: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := detectionRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting archived detections: %v", err)
			totalCount = len(detections)
		}

		data := dto.ArchivePage{
			Detections:  detections,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}
		if data.Detections == nil {
			data.Detections = []model.ArchivedDetection{}
		}

		writeJSON(w, logger, http.StatusOK, data)
	}
}

// ArchiveLabelsHandler returns every animal label present in the archive.
func ArchiveLabelsHandler(detectionRepo repository.DetectionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := detectionRepo.GetAllAnimalTypes()
		if err != nil {
			logger.Error("Error querying archive labels: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if labels == nil {
			labels = []string{}
		}
		writeJSON(w, logger, http.StatusOK, labels)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" (HTML input format) in local time.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
