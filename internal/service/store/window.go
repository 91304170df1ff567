package store

import (
	"farmguardian/internal/model"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DefaultCapacity is the number of records kept in the rolling window.
const DefaultCapacity = 50

// Observer is notified after every Record, outside the window lock.
type Observer func(model.Detection)

// Window is the rolling, newest-first, capped sequence of detection records.
// It never updates, deletes or deduplicates entries; the oldest record falls off
// once the capacity is reached.
type Window struct {
	mu        sync.RWMutex
	buf       []model.Detection
	head      int // index of the newest record
	size      int
	observers []Observer
}

// NewWindow creates a window holding at most capacity records.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{
		buf:  make([]model.Detection, capacity),
		head: -1,
	}
}

// Subscribe registers an observer for newly recorded detections.
func (w *Window) Subscribe(fn Observer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Record prepends d and evicts the oldest record beyond capacity.
func (w *Window) Record(d model.Detection) {
	w.mu.Lock()
	w.head = (w.head + 1) % len(w.buf)
	w.buf[w.head] = d
	if w.size < len(w.buf) {
		w.size++
	}
	observers := w.observers
	w.mu.Unlock()

	for _, fn := range observers {
		fn(d)
	}
}

// Latest returns the newest record, or false when the window is empty.
func (w *Window) Latest() (model.Detection, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.size == 0 {
		return model.Detection{}, false
	}
	return w.buf[w.head], true
}

// Count returns the windowed number of records, not a lifetime total.
func (w *Window) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Snapshot returns a newest-first copy of the window.
func (w *Window) Snapshot() []model.Detection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *Window) snapshotLocked() []model.Detection {
	out := make([]model.Detection, 0, w.size)
	for i := 0; i < w.size; i++ {
		idx := (w.head - i + len(w.buf)) % len(w.buf)
		out = append(out, w.buf[idx])
	}
	return out
}

// CountsByLabel counts records per animal type in the current window.
func (w *Window) CountsByLabel() map[string]int {
	counts := make(map[string]int)
	for _, d := range w.Snapshot() {
		counts[d.AnimalType]++
	}
	return counts
}

// CountsByHour buckets records by the local hour (0-23) of their timestamp.
// Only hours with at least one record are present.
func (w *Window) CountsByHour() map[int]int {
	counts := make(map[int]int)
	for _, d := range w.Snapshot() {
		counts[d.Timestamp.Local().Hour()]++
	}
	return counts
}

// MeanConfidence averages confidence over the window; an empty window yields 0.
func (w *Window) MeanConfidence() float64 {
	records := w.Snapshot()
	if len(records) == 0 {
		return 0
	}
	values := make([]float64, len(records))
	for i, d := range records {
		values[i] = d.Confidence
	}
	return stat.Mean(values, nil)
}
