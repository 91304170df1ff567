package ai

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"farmguardian/internal/model"
	"farmguardian/internal/service/detection"

	"gocv.io/x/gocv"
)

var alertRed = color.RGBA{R: 239, G: 68, B: 68, A: 255}

// Overlay draws detection boxes onto a transparent surface sized to the source frame
// and keeps the latest rendering as PNG.
type Overlay struct {
	mu     sync.RWMutex
	png    []byte
	width  int
	height int
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Draw replaces the overlay content with one rectangle and label per result.
func (o *Overlay) Draw(frame detection.Frame, results []model.RawResult) error {
	if frame.Empty() {
		return fmt.Errorf("frame has no size")
	}

	mat := gocv.NewMatWithSize(frame.Height, frame.Width, gocv.MatTypeCV8UC4)
	defer mat.Close()

	for _, r := range results {
		rect := image.Rect(int(r.Box.XMin), int(r.Box.YMin), int(r.Box.XMax), int(r.Box.YMax))
		if err := gocv.Rectangle(&mat, rect, alertRed, 3); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s (%.1f%%)", r.Label, r.Score*100)
		pt := image.Pt(int(r.Box.XMin), int(r.Box.YMin)-5)
		if err := gocv.PutText(&mat, label, pt, gocv.FontHersheySimplex, 0.6, alertRed, 2); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	o.mu.Lock()
	o.png = data
	o.width = frame.Width
	o.height = frame.Height
	o.mu.Unlock()
	return nil
}

// Clear drops the current rendering.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.png = nil
}

// PNG returns the latest rendering, or nil when nothing has been drawn.
func (o *Overlay) PNG() []byte {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.png
}
