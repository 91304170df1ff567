package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
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
	"farmguardian/internal/service/schedule"
	"farmguardian/internal/service/store"
	"farmguardian/internal/service/websocket"
)

// Mode is how detections are produced while monitoring.
type Mode string

const (
	ModeStandby    Mode = "standby"
	ModeClassifier Mode = "classifier"
	ModeDemo       Mode = "demo"
	// ModeNoCamera is a classifier session whose camera could not be acquired.
	ModeNoCamera Mode = "camera-unavailable"
)

const cameraUnavailableNotice = "Unable to access camera. Please check permissions."

const notifyTimeout = 15 * time.Second

// Broadcaster pushes typed messages to live viewers.
type Broadcaster interface {
	Broadcast(msgType string, data any)
}

// Archiver receives every recorded detection with the frame it came from (nil for demo records).
type Archiver interface {
	Add(d model.Detection, frame []byte)
}

// Dependencies are the collaborators a Manager drives. Classifier, Overlay, Hub and Archive may be nil.
type Dependencies struct {
	Classifier detection.Classifier
	Overlay    detection.Overlay
	Enumerator camera.Enumerator
	Opener     camera.Opener
	Fleet      *fleet.Registry
	Hub        Broadcaster
	Notifier   notify.Service
	Alerts     *notify.SettingsStore
	Archive    Archiver
}

// Status describes the current monitoring session.
type Status struct {
	Monitoring        bool       `json:"monitoring"`
	Mode              Mode       `json:"mode"`
	CameraID          string     `json:"cameraId"`
	CameraLabel       string     `json:"cameraLabel,omitempty"`
	ClassifierReady   bool       `json:"classifierReady"`
	ClassifierBackend string     `json:"classifierBackend,omitempty"`
	DemoProfile       string     `json:"demoProfile,omitempty"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	Notice            string     `json:"notice,omitempty"`
	Detections        int        `json:"detections"`
}

// Manager owns the monitoring lifecycle: it acquires the camera, schedules the
// capture-and-classify loop (or the demo generator) and fans recorded
// detections out to viewers, notifications, the fleet registry and the archive.
type Manager struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	deps    Dependencies

	window  *store.Window
	adapter *detection.Adapter
	demo    *demo.Generator

	mu         sync.Mutex
	monitoring bool
	task       *schedule.Task
	stream     camera.Stream
	mode       Mode
	startedAt  time.Time
	notice     string

	notifyWG sync.WaitGroup
}

// NewManager wires the window, adapter and demo generator around deps.
func NewManager(cfg *config.Config, logger *logger.Logger, m *metrics.Metrics, deps Dependencies) (*Manager, error) {
	profile, err := demo.LookupProfile(cfg.DemoProfile)
	if err != nil {
		return nil, err
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewService(&config.Config{})
	}
	if deps.Alerts == nil {
		deps.Alerts = notify.NewSettingsStore()
	}

	mgr := &Manager{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		deps:    deps,
		window:  store.NewWindow(store.DefaultCapacity),
		demo:    demo.NewGenerator(profile, cfg.CameraID, nil),
		mode:    ModeStandby,
	}

	mgr.adapter = detection.NewAdapter(deps.Classifier, deps.Overlay, mgr.recordFrame, detection.Options{
		CameraID:            cfg.CameraID,
		ClearOverlayOnEmpty: cfg.OverlayClearOnEmpty,
	}, logger, m)

	mgr.window.Subscribe(mgr.onRecorded)
	m.RegisterWindowGauge(mgr.window.Count)

	return mgr, nil
}

// Window exposes the rolling detection window for read-only queries.
func (m *Manager) Window() *store.Window {
	return m.window
}

// Fleet returns the camera and device registry.
func (m *Manager) Fleet() *fleet.Registry {
	return m.deps.Fleet
}

// Alerts returns the alert preferences.
func (m *Manager) Alerts() *notify.SettingsStore {
	return m.deps.Alerts
}

// StartMonitoring begins producing detections. With a classifier it acquires the camera
// and runs the adapter every DetectionInterval; without one (or in demo mode) it runs the
// demo generator. The task lives until StopMonitoring or Close, or until ctx is cancelled.
//
// A camera that cannot be acquired is not an error: the session stays on in ModeNoCamera
// with a notice and produces nothing until it is stopped and started again.
// Starting an active session is a no-op.
func (m *Manager) StartMonitoring(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitoring {
		return nil
	}

	m.notice = ""
	if m.adapter.Ready() && !m.cfg.DemoMode {
		stream, err := camera.Acquire(m.deps.Enumerator, m.deps.Opener, camera.Hints{
			Width:  m.cfg.CameraWidth,
			Height: m.cfg.CameraHeight,
			FPS:    m.cfg.CameraFPS,
		}, m.logger)
		if err != nil {
			m.metrics.CameraErrors.Add(1)
			m.mode = ModeNoCamera
			m.notice = cameraUnavailableNotice
			m.broadcast(websocket.MessageNotice, m.notice)
			m.notifyAsync(func(ctx context.Context) error {
				return m.deps.Notifier.NotifyCameraUnavailable(ctx, err.Error())
			})
		} else {
			m.stream = stream
			m.adapter.SetSource(stream)
			m.task = schedule.Every(ctx, m.cfg.DetectionInterval, m.classifierTick)
			m.mode = ModeClassifier
		}
	} else {
		// Brak modelu nie jest pokazywany użytkownikowi, tylko logowany przy starcie
		m.task = schedule.Every(ctx, m.demo.Profile().Period, m.demoTick)
		m.mode = ModeDemo
	}

	m.monitoring = true
	m.startedAt = time.Now()
	m.metrics.SetMonitoring(true)
	m.logger.Info("▶️  Monitoring started in %s mode", m.mode)
	m.broadcast(websocket.MessageNotice, fmt.Sprintf("Monitoring started (%s)", m.mode))
	return nil
}

// StopMonitoring stops the scheduled task, waiting for an in-flight tick, and releases the camera.
// Stopping an inactive session is a no-op.
func (m *Manager) StopMonitoring() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

func (m *Manager) stopLocked() error {
	if !m.monitoring {
		return nil
	}

	m.task.Stop()
	m.task = nil
	m.monitoring = false
	m.notice = ""
	m.adapter.SetSource(nil)

	var err error
	if m.stream != nil {
		if closeErr := m.stream.Close(); closeErr != nil {
			err = fmt.Errorf("release camera: %w", closeErr)
		}
		m.stream = nil
	}

	m.logger.Info("⏹️  Monitoring stopped (%s mode)", m.mode)
	m.mode = ModeStandby
	m.startedAt = time.Time{}
	m.metrics.SetMonitoring(false)
	m.broadcast(websocket.MessageNotice, "Monitoring stopped")
	return err
}

// Close stops monitoring, waits for pending notifications and releases the classifier.
func (m *Manager) Close() error {
	m.mu.Lock()
	err := m.stopLocked()
	m.mu.Unlock()

	m.notifyWG.Wait()

	if closer, ok := m.deps.Classifier.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}

// Status reports the current session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Monitoring:      m.monitoring,
		Mode:            m.mode,
		CameraID:        m.cfg.CameraID,
		ClassifierReady: m.adapter.Ready(),
		Notice:          m.notice,
		Detections:      m.window.Count(),
	}
	if b, ok := m.deps.Classifier.(interface{ Backend() string }); ok {
		s.ClassifierBackend = b.Backend()
	}
	if m.stream != nil {
		s.CameraLabel = m.stream.Label()
	}
	if m.mode == ModeDemo {
		s.DemoProfile = m.demo.Profile().Name
	}
	if !m.startedAt.IsZero() {
		t := m.startedAt
		s.StartedAt = &t
	}
	return s
}

func (m *Manager) classifierTick(ctx context.Context) {
	m.adapter.Tick(ctx)
}

func (m *Manager) demoTick(ctx context.Context) {
	m.metrics.DemoTicks.Add(1)
	d, ok := m.demo.Next()
	if !ok || ctx.Err() != nil {
		return
	}
	m.record(d, nil)
}

func (m *Manager) recordFrame(d model.Detection, frame detection.Frame) {
	m.record(d, frame.Data)
}

func (m *Manager) record(d model.Detection, frame []byte) {
	m.window.Record(d)
	if m.deps.Archive != nil {
		m.deps.Archive.Add(d, frame)
	}
}

// onRecorded runs for every detection appended to the window.
func (m *Manager) onRecorded(d model.Detection) {
	switch d.Source {
	case model.SourceDemo:
		m.metrics.DemoDetections.Add(1)
	default:
		m.metrics.ClassifierDetections.Add(1)
	}

	if m.deps.Fleet != nil {
		m.deps.Fleet.SetLastDetection(d.CameraID, d.Timestamp)
	}

	m.broadcast(websocket.MessageDetection, d)

	if m.deps.Alerts.Get().AlertsEnabled {
		m.notifyAsync(func(ctx context.Context) error {
			return m.deps.Notifier.NotifyDetection(ctx, d)
		})
	}
}

func (m *Manager) broadcast(msgType string, data any) {
	if m.deps.Hub != nil {
		m.deps.Hub.Broadcast(msgType, data)
	}
}

// notifyAsync sends a notification without blocking the detection loop.
func (m *Manager) notifyAsync(send func(ctx context.Context) error) {
	if !notify.Enabled(m.deps.Notifier) {
		return
	}
	m.notifyWG.Add(1)
	go func() {
		defer m.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			m.metrics.NotificationsFailed.Add(1)
			m.logger.Warning("Failed to send notification: %v", err)
			return
		}
		m.metrics.NotificationsSent.Add(1)
	}()
}
