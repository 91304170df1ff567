package detection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/model"
)

func testLogger() *logger.Logger {
	return logger.NewWriterLogger(io.Discard, logger.LevelDebug)
}

type stubSource struct {
	frame Frame
	err   error
	calls int
}

func (s *stubSource) Snapshot() (Frame, error) {
	s.calls++
	return s.frame, s.err
}

type stubOverlay struct {
	draws   [][]model.RawResult
	cleared int
}

func (o *stubOverlay) Draw(frame Frame, results []model.RawResult) error {
	o.draws = append(o.draws, results)
	return nil
}

func (o *stubOverlay) Clear() {
	o.cleared++
}

func staticClassifier(results []model.RawResult, err error) ClassifierFunc {
	return func(ctx context.Context, frame Frame) ([]model.RawResult, error) {
		return results, err
	}
}

func testFrame() Frame {
	return Frame{Data: []byte{0xFF, 0xD8, 0xFF, 0xD9}, Width: 640, Height: 480, CapturedAt: time.Now()}
}

func newTestAdapter(c Classifier, overlay Overlay, emitted *[]model.Detection, opts Options) *Adapter {
	a := NewAdapter(c, overlay, func(d model.Detection, f Frame) {
		*emitted = append(*emitted, d)
	}, opts, testLogger(), metrics.New())
	n := 0
	a.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return a
}

func TestAdapter_SkipsWithoutSource(t *testing.T) {
	var emitted []model.Detection
	called := false
	c := ClassifierFunc(func(ctx context.Context, frame Frame) ([]model.RawResult, error) {
		called = true
		return nil, nil
	})
	a := newTestAdapter(c, nil, &emitted, Options{})

	if got := a.Tick(context.Background()); got != nil {
		t.Errorf("Expected no detections, got %d", len(got))
	}
	if called {
		t.Error("Classifier must not be invoked without a source")
	}
}

func TestAdapter_SkipsZeroSizeFrame(t *testing.T) {
	var emitted []model.Detection
	called := false
	c := ClassifierFunc(func(ctx context.Context, frame Frame) ([]model.RawResult, error) {
		called = true
		return nil, nil
	})
	a := newTestAdapter(c, nil, &emitted, Options{})
	a.SetSource(&stubSource{frame: Frame{Width: 0, Height: 480}})

	a.Tick(context.Background())

	if called {
		t.Error("Classifier must not be invoked for a zero-size frame")
	}
	if a.metrics.TicksSkipped.Load() != 1 {
		t.Errorf("Expected 1 skipped tick, got %d", a.metrics.TicksSkipped.Load())
	}
}

func TestAdapter_EmitsOncePerAnimal(t *testing.T) {
	raw := []model.RawResult{
		{Label: "wolf", Score: 0.9, Box: model.RawBox{XMin: 0, YMin: 0, XMax: 5, YMax: 5}},
		{Label: "Bird", Score: 0.8, Box: model.RawBox{XMin: 10, YMin: 20, XMax: 110, YMax: 70}},
		{Label: "car", Score: 0.7},
		{Label: "COW", Score: 0.6, Box: model.RawBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4}},
	}
	var emitted []model.Detection
	overlay := &stubOverlay{}
	a := newTestAdapter(staticClassifier(raw, nil), overlay, &emitted, Options{CameraID: "cam-001"})
	a.SetSource(&stubSource{frame: testFrame()})

	records := a.Tick(context.Background())

	if len(records) != 2 || len(emitted) != 2 {
		t.Fatalf("Expected 2 records and 2 emits, got %d and %d", len(records), len(emitted))
	}

	bird := emitted[0]
	if bird.AnimalType != "Bird" || bird.Confidence != 0.8 {
		t.Errorf("Unexpected first record: %+v", bird)
	}
	if bird.BoundingBox == nil || *bird.BoundingBox != (model.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}) {
		t.Errorf("Unexpected bounding box: %+v", bird.BoundingBox)
	}
	if bird.CameraID != "cam-001" || bird.Source != model.SourceClassifier {
		t.Errorf("Unexpected camera/source: %s/%s", bird.CameraID, bird.Source)
	}
	if emitted[0].ID == emitted[1].ID {
		t.Error("Expected distinct ids per record")
	}

	if len(overlay.draws) != 1 || len(overlay.draws[0]) != 2 {
		t.Errorf("Expected one overlay draw with 2 boxes, got %+v", overlay.draws)
	}
}

func TestAdapter_ClassifyErrorYieldsNothing(t *testing.T) {
	var emitted []model.Detection
	a := newTestAdapter(staticClassifier(nil, errors.New("boom")), nil, &emitted, Options{})
	a.SetSource(&stubSource{frame: testFrame()})

	for i := 0; i < 3; i++ {
		if got := a.Tick(context.Background()); len(got) != 0 {
			t.Errorf("Expected no detections on error, got %d", len(got))
		}
	}

	if a.metrics.ClassifyErrors.Load() != 3 {
		t.Errorf("Expected every tick to keep classifying, got %d errors", a.metrics.ClassifyErrors.Load())
	}
}

func TestAdapter_OverlayNotClearedOnEmptyByDefault(t *testing.T) {
	var emitted []model.Detection
	overlay := &stubOverlay{}
	a := newTestAdapter(staticClassifier([]model.RawResult{{Label: "person", Score: 0.9}}, nil), overlay, &emitted, Options{})
	a.SetSource(&stubSource{frame: testFrame()})

	a.Tick(context.Background())

	if overlay.cleared != 0 || len(overlay.draws) != 0 {
		t.Errorf("Expected overlay untouched, got %d clears and %d draws", overlay.cleared, len(overlay.draws))
	}
}

func TestAdapter_OverlayClearedOnEmptyWhenConfigured(t *testing.T) {
	var emitted []model.Detection
	overlay := &stubOverlay{}
	a := newTestAdapter(staticClassifier(nil, nil), overlay, &emitted, Options{ClearOverlayOnEmpty: true})
	a.SetSource(&stubSource{frame: testFrame()})

	a.Tick(context.Background())

	if overlay.cleared != 1 {
		t.Errorf("Expected overlay cleared once, got %d", overlay.cleared)
	}
}

func TestAdapter_DiscardsResultAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := ClassifierFunc(func(ctx context.Context, frame Frame) ([]model.RawResult, error) {
		cancel()
		return []model.RawResult{{Label: "dog", Score: 0.9}}, nil
	})
	var emitted []model.Detection
	a := newTestAdapter(c, nil, &emitted, Options{})
	a.SetSource(&stubSource{frame: testFrame()})

	a.Tick(ctx)

	if len(emitted) != 0 {
		t.Errorf("Expected pending result to be discarded, got %d emits", len(emitted))
	}
}

func TestAdapter_SourceNoSourceErrorIsSilentSkip(t *testing.T) {
	var emitted []model.Detection
	a := newTestAdapter(staticClassifier(nil, nil), nil, &emitted, Options{})
	a.SetSource(&stubSource{err: ErrNoSource})

	a.Tick(context.Background())

	if a.metrics.TicksSkipped.Load() != 1 {
		t.Errorf("Expected skipped tick, got %d", a.metrics.TicksSkipped.Load())
	}
}
