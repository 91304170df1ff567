package model

import "time"

// Source identifies which producer created a detection record.
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceDemo       Source = "demo"
)

// BoundingBox is an axis-aligned rectangle in source-frame pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is a single normalized animal sighting.
type Detection struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Confidence  float64      `json:"confidence"`
	AnimalType  string       `json:"animalType"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
	CameraID    string       `json:"cameraId,omitempty"`
	Source      Source       `json:"source"`
}

// RawBox is the corner-form box returned by a classifier.
type RawBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Normalize converts corner form to origin plus extent. Inverted corners yield a zero extent.
func (b RawBox) Normalize() BoundingBox {
	return BoundingBox{
		X:      b.XMin,
		Y:      b.YMin,
		Width:  max(b.XMax-b.XMin, 0),
		Height: max(b.YMax-b.YMin, 0),
	}
}

// RawResult is one entry of a classifier's output.
type RawResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   RawBox  `json:"box"`
}
