package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"farmguardian/internal/config"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/model"
	"farmguardian/internal/service/camera"
	"farmguardian/internal/service/demo"
	"farmguardian/internal/service/detection"
	"farmguardian/internal/service/fleet"
	"farmguardian/internal/service/notify"
	"farmguardian/internal/service/websocket"
)

type fakeStream struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeStream) Snapshot() (detection.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return detection.Frame{}, detection.ErrNoSource
	}
	return detection.Frame{Data: []byte{0xFF, 0xD8}, Width: 640, Height: 480, CapturedAt: time.Now()}, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) Label() string { return "Test USB Webcam" }

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeOpener struct {
	stream *fakeStream
	fail   bool
	opens  int
}

func (o *fakeOpener) Open(camera.Device, camera.Hints) (camera.Stream, error) {
	o.opens++
	if o.fail {
		return nil, errors.New("device busy")
	}
	return o.stream, nil
}

func (o *fakeOpener) OpenDefault() (camera.Stream, error) {
	o.opens++
	if o.fail {
		return nil, errors.New("permission denied")
	}
	return o.stream, nil
}

type fakeHub struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (h *fakeHub) Broadcast(msgType string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, websocket.Message{Type: msgType, Data: data})
}

func (h *fakeHub) sent(msgType string, data any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.messages {
		if m.Type == msgType && m.Data == data {
			return true
		}
	}
	return false
}

func (h *fakeHub) count(msgType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu         sync.Mutex
	detections int
	cameraDown int
}

func (n *fakeNotifier) NotifyDetection(context.Context, model.Detection) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detections++
	return nil
}

func (n *fakeNotifier) NotifyCameraUnavailable(context.Context, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cameraDown++
	return nil
}

func (n *fakeNotifier) TestNotification(context.Context) error { return nil }

type fakeArchive struct {
	mu     sync.Mutex
	frames [][]byte
}

func (a *fakeArchive) Add(_ model.Detection, frame []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frames = append(a.frames, frame)
}

func (a *fakeArchive) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.frames)
}

var birdClassifier = detection.ClassifierFunc(func(context.Context, detection.Frame) ([]model.RawResult, error) {
	return []model.RawResult{
		{Label: "bird", Score: 0.9, Box: model.RawBox{XMin: 10, YMin: 20, XMax: 110, YMax: 70}},
		{Label: "car", Score: 0.99, Box: model.RawBox{XMax: 5, YMax: 5}},
	}, nil
})

// gpuClassifier reports the backend it was loaded with.
type gpuClassifier struct {
	detection.ClassifierFunc
}

func (gpuClassifier) Backend() string { return "cuda" }

type harness struct {
	mgr      *Manager
	opener   *fakeOpener
	stream   *fakeStream
	hub      *fakeHub
	notifier *fakeNotifier
	archive  *fakeArchive
	fleet    *fleet.Registry
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T, classifier detection.Classifier) *harness {
	t.Helper()
	return newHarnessWithConfig(t, classifier, func(*config.Config) {})
}

func newHarnessWithConfig(t *testing.T, classifier detection.Classifier, configure func(*config.Config)) *harness {
	t.Helper()

	cfg := &config.Config{
		CameraID:          "cam-001",
		DetectionInterval: 5 * time.Millisecond,
		DemoProfile:       "camera-feed",
	}
	configure(cfg)
	stream := &fakeStream{}
	h := &harness{
		opener:   &fakeOpener{stream: stream},
		stream:   stream,
		hub:      &fakeHub{},
		notifier: &fakeNotifier{},
		archive:  &fakeArchive{},
		fleet:    fleet.NewRegistry(fleet.DefaultLayout()),
		metrics:  metrics.New(),
	}

	mgr, err := NewManager(cfg, logger.NewWriterLogger(io.Discard, logger.LevelError), h.metrics, Dependencies{
		Classifier: classifier,
		Opener:     h.opener,
		Fleet:      h.fleet,
		Hub:        h.hub,
		Notifier:   h.notifier,
		Archive:    h.archive,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	h.mgr = mgr
	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestManager_ClassifierSession(t *testing.T) {
	h := newHarness(t, birdClassifier)

	if err := h.mgr.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	status := h.mgr.Status()
	if !status.Monitoring || status.Mode != ModeClassifier || status.CameraLabel != "Test USB Webcam" {
		t.Fatalf("unexpected status %+v", status)
	}

	waitFor(t, func() bool { return h.mgr.Window().Count() >= 2 })

	if err := h.mgr.StopMonitoring(); err != nil {
		t.Fatalf("StopMonitoring: %v", err)
	}
	if !h.stream.isClosed() {
		t.Error("expected camera released on stop")
	}

	count := h.mgr.Window().Count()
	time.Sleep(30 * time.Millisecond)
	if got := h.mgr.Window().Count(); got != count {
		t.Errorf("window changed after stop: %d -> %d", count, got)
	}

	latest, ok := h.mgr.Window().Latest()
	if !ok || latest.AnimalType != "bird" || latest.Source != model.SourceClassifier {
		t.Errorf("unexpected latest %+v", latest)
	}
	if latest.BoundingBox == nil || latest.BoundingBox.Width != 100 || latest.BoundingBox.Height != 50 {
		t.Errorf("expected normalized box, got %+v", latest.BoundingBox)
	}

	cam, _ := h.fleet.Camera("cam-001")
	if cam.LastDetection == nil {
		t.Error("expected camera last detection to be stamped")
	}
	if h.hub.count(websocket.MessageDetection) != count {
		t.Errorf("expected %d detection broadcasts, got %d", count, h.hub.count(websocket.MessageDetection))
	}
	if h.archive.len() != count {
		t.Errorf("expected %d archived, got %d", count, h.archive.len())
	}
	if h.mgr.Status().Mode != ModeStandby {
		t.Errorf("expected standby after stop, got %s", h.mgr.Status().Mode)
	}
}

func TestManager_StartStopAreIdempotent(t *testing.T) {
	h := newHarness(t, birdClassifier)
	ctx := context.Background()

	if err := h.mgr.StopMonitoring(); err != nil {
		t.Fatalf("stop while idle: %v", err)
	}
	if err := h.mgr.StartMonitoring(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.mgr.StartMonitoring(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if h.opener.opens != 1 {
		t.Errorf("expected camera opened once, got %d", h.opener.opens)
	}
	if err := h.mgr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !h.stream.isClosed() {
		t.Error("expected camera released on close")
	}
}

func TestManager_CameraFailureKeepsMonitoring(t *testing.T) {
	h := newHarness(t, birdClassifier)
	h.opener.fail = true

	if err := h.mgr.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("camera failure must not fail the session: %v", err)
	}
	if h.opener.opens != 2 {
		t.Errorf("expected one attempt and one fallback, got %d opens", h.opener.opens)
	}

	status := h.mgr.Status()
	if !status.Monitoring || status.Mode != ModeNoCamera || status.Notice != cameraUnavailableNotice {
		t.Errorf("expected monitoring on without a camera, got %+v", status)
	}
	if !h.hub.sent(websocket.MessageNotice, cameraUnavailableNotice) {
		t.Error("expected camera notice broadcast")
	}
	if h.metrics.CameraErrors.Load() != 1 {
		t.Errorf("expected camera error metric, got %d", h.metrics.CameraErrors.Load())
	}

	// Brak automatycznego ponawiania
	if err := h.mgr.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if h.opener.opens != 2 {
		t.Errorf("expected no new camera attempt while monitoring, got %d opens", h.opener.opens)
	}

	if err := h.mgr.StopMonitoring(); err != nil {
		t.Fatalf("StopMonitoring: %v", err)
	}
	status = h.mgr.Status()
	if status.Monitoring || status.Mode != ModeStandby || status.Notice != "" {
		t.Errorf("expected standby after stop, got %+v", status)
	}

	h.mgr.Close()
	if h.notifier.cameraDown != 1 {
		t.Errorf("expected camera-unavailable notification, got %d", h.notifier.cameraDown)
	}
}

func TestManager_CameraRetryAfterStop(t *testing.T) {
	h := newHarness(t, birdClassifier)
	h.opener.fail = true
	h.mgr.StartMonitoring(context.Background())
	h.mgr.StopMonitoring()

	h.opener.fail = false
	if err := h.mgr.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	if s := h.mgr.Status(); s.Mode != ModeClassifier || s.Notice != "" || s.CameraLabel != "Test USB Webcam" {
		t.Errorf("expected camera session, got %+v", s)
	}
}

func TestManager_DemoWithoutClassifier(t *testing.T) {
	h := newHarness(t, nil)
	h.mgr.demo = demo.NewGenerator(demo.Profile{
		Name:          "test",
		Period:        2 * time.Millisecond,
		Probability:   1,
		Animals:       []string{"fox"},
		MinConfidence: 0.85,
		MaxConfidence: 1,
		MaxOffset:     200,
		MinExtent:     50,
		ExtentRange:   100,
	}, "cam-001", nil)

	if err := h.mgr.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	if h.opener.opens != 0 {
		t.Error("demo mode must not open the camera")
	}
	if s := h.mgr.Status(); s.Mode != ModeDemo || s.DemoProfile != "test" || s.Notice != "" || s.ClassifierReady {
		t.Errorf("unexpected status %+v", s)
	}

	waitFor(t, func() bool { return h.mgr.Window().Count() >= 3 })
	h.mgr.StopMonitoring()

	for _, d := range h.mgr.Window().Snapshot() {
		if d.Source != model.SourceDemo || d.AnimalType != "fox" {
			t.Errorf("unexpected demo record %+v", d)
		}
	}
	if h.metrics.DemoDetections.Load() == 0 {
		t.Error("expected demo detections metric")
	}
}

func TestManager_ExplicitDemoModeSkipsCamera(t *testing.T) {
	h := newHarnessWithConfig(t, gpuClassifier{birdClassifier}, func(cfg *config.Config) {
		cfg.DemoMode = true
	})

	if err := h.mgr.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	s := h.mgr.Status()
	if s.Mode != ModeDemo || s.Notice != "" || !s.Monitoring {
		t.Errorf("unexpected status %+v", s)
	}
	if s.ClassifierBackend != "cuda" {
		t.Errorf("expected classifier backend cuda, got %q", s.ClassifierBackend)
	}
	if h.opener.opens != 0 {
		t.Errorf("demo mode must not open the camera, got %d opens", h.opener.opens)
	}
}

func TestManager_AlertsToggleNotifications(t *testing.T) {
	h := newHarness(t, birdClassifier)

	off := false
	h.mgr.Alerts().Apply(notify.SettingsUpdate{AlertsEnabled: &off})
	h.mgr.record(model.Detection{ID: "1", AnimalType: "deer", CameraID: "cam-001", Timestamp: time.Now()}, nil)

	on := true
	h.mgr.Alerts().Apply(notify.SettingsUpdate{AlertsEnabled: &on})
	h.mgr.record(model.Detection{ID: "2", AnimalType: "fox", CameraID: "cam-001", Timestamp: time.Now()}, nil)

	h.mgr.Close()
	if h.notifier.detections != 1 {
		t.Errorf("expected exactly one notification, got %d", h.notifier.detections)
	}
	if h.metrics.NotificationsSent.Load() != 1 {
		t.Errorf("expected sent metric 1, got %d", h.metrics.NotificationsSent.Load())
	}
}

func TestNewManagerRejectsUnknownProfile(t *testing.T) {
	cfg := &config.Config{DemoProfile: "nope"}
	if _, err := NewManager(cfg, nil, metrics.New(), Dependencies{}); err == nil {
		t.Fatal("expected error for unknown demo profile")
	}
}
