package dto

import (
	"time"

	"farmguardian/internal/model"
)

// BufferedSnapshot groups the detections that came from one frame until the archive flushes them.
type BufferedSnapshot struct {
	Camera     string
	Timestamp  time.Time
	Frame      []byte // JPEG; puste dla detekcji demo albo po przekroczeniu limitu
	SnapshotID int64  // ustawione, gdy klatka jest już zapisana, a wiersze czekają na ponowienie
	Detections []model.Detection
}
