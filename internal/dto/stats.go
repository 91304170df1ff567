package dto

import (
	"encoding/json"
	"fmt"
)

// HourBucket is one bar of the hourly activity chart.
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// MarshalJSON renders the hour as the chart axis label ("7:00").
func (h HourBucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Hour  string `json:"hour"`
		Count int    `json:"count"`
	}{
		Hour:  fmt.Sprintf("%d:00", h.Hour),
		Count: h.Count,
	})
}

// LabelSlice is one slice of the animal distribution chart.
type LabelSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// Stats is the payload behind the farm statistics panel.
type Stats struct {
	TotalDetections   int          `json:"totalDetections"`
	ActiveAlerts      int          `json:"activeAlerts"`
	SpeciesDetected   int          `json:"speciesDetected"`
	AverageConfidence float64      `json:"averageConfidence"`
	Hourly            []HourBucket `json:"hourly"`
	Distribution      []LabelSlice `json:"distribution"`
}
