package model

import "time"

// Snapshot represents an archived frame that produced at least one detection.
type Snapshot struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Camera    string    `json:"camera"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}

// ArchivedDetection is a detection row read back from the archive.
type ArchivedDetection struct {
	Detection
	SnapshotID int64 `json:"snapshotId,omitempty"`
}
