package detection

import (
	"context"
	"errors"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/model"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FrameSource yields the current frame of an active video stream.
type FrameSource interface {
	Snapshot() (Frame, error)
}

// Overlay is the drawing surface aligned to the source frame.
type Overlay interface {
	// Draw replaces the overlay content with the given results.
	Draw(frame Frame, results []model.RawResult) error
	Clear()
}

// Emitter receives each accepted detection together with the frame it came from.
type Emitter func(d model.Detection, frame Frame)

// Options tune adapter behaviour.
type Options struct {
	CameraID            string
	ClearOverlayOnEmpty bool
}

// Adapter bridges a live frame source to a stream of normalized detection records.
type Adapter struct {
	classifier Classifier
	overlay    Overlay
	emit       Emitter
	opts       Options
	logger     *logger.Logger
	metrics    *metrics.Metrics

	now   func() time.Time
	newID func() string

	mu     sync.RWMutex
	source FrameSource
}

// NewAdapter creates an adapter. overlay may be nil.
func NewAdapter(classifier Classifier, overlay Overlay, emit Emitter, opts Options, logger *logger.Logger, m *metrics.Metrics) *Adapter {
	return &Adapter{
		classifier: classifier,
		overlay:    overlay,
		emit:       emit,
		opts:       opts,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// SetSource attaches or detaches (nil) the active frame source.
func (a *Adapter) SetSource(src FrameSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
}

// Ready reports whether a classifier is available.
func (a *Adapter) Ready() bool {
	return a.classifier != nil
}

func (a *Adapter) currentSource() FrameSource {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.source
}

// Tick runs a single capture-and-classify cycle and returns the records it emitted.
// It never returns an error: a missing source or an empty frame skips the tick,
// and classification errors are logged and yield no detections.
func (a *Adapter) Tick(ctx context.Context) []model.Detection {
	a.metrics.Ticks.Add(1)

	src := a.currentSource()
	if src == nil || a.classifier == nil {
		a.metrics.TicksSkipped.Add(1)
		return nil
	}

	frame, err := src.Snapshot()
	if err != nil {
		if !errors.Is(err, ErrNoSource) {
			a.logger.Warning("Failed to capture frame from %s: %v", a.opts.CameraID, err)
		}
		a.metrics.TicksSkipped.Add(1)
		return nil
	}
	if frame.Empty() {
		a.metrics.TicksSkipped.Add(1)
		return nil
	}

	start := a.now()
	raw, err := a.classifier.Classify(ctx, frame)
	a.metrics.ObserveClassifyLatency(a.now().Sub(start))
	if err != nil {
		a.logger.Error("Detection error: %v", err)
		a.metrics.ClassifyErrors.Add(1)
		return nil
	}

	// Widok został zamknięty w trakcie klasyfikacji
	if ctx.Err() != nil {
		return nil
	}

	animals := FilterAnimals(raw)
	if len(animals) == 0 {
		if a.opts.ClearOverlayOnEmpty && a.overlay != nil {
			a.overlay.Clear()
		}
		return nil
	}

	records := make([]model.Detection, 0, len(animals))
	for _, r := range animals {
		box := r.Box.Normalize()
		d := model.Detection{
			ID:          a.newID(),
			Timestamp:   a.now(),
			Confidence:  r.Score,
			AnimalType:  r.Label,
			BoundingBox: &box,
			CameraID:    a.opts.CameraID,
			Source:      model.SourceClassifier,
		}
		records = append(records, d)
		if a.emit != nil {
			a.emit(d, frame)
		}
	}

	if a.overlay != nil {
		if err := a.overlay.Draw(frame, animals); err != nil {
			a.logger.Warning("Failed to draw overlay: %v", err)
		}
	}

	a.logger.Info("🐾 Camera %s: %d animal(s) detected", a.opts.CameraID, len(records))
	return records
}
