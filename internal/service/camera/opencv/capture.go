package opencv

import (
	"fmt"
	"sync"
	"time"

	"farmguardian/internal/service/camera"
	"farmguardian/internal/service/detection"

	"gocv.io/x/gocv"
)

// JPEGQuality is used when snapshotting frames for the classifier.
const JPEGQuality = 80

// Opener opens V4L2 devices through OpenCV.
type Opener struct{}

// Open acquires dev and applies the resolution and frame-rate hints.
func (Opener) Open(dev camera.Device, hints camera.Hints) (camera.Stream, error) {
	capture, err := gocv.OpenVideoCapture(dev.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %d: %w", dev.Index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("device %d did not open", dev.Index)
	}

	if hints.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(hints.Width))
	}
	if hints.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(hints.Height))
	}
	if hints.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(hints.FPS))
	}

	return newStream(capture, dev.Label), nil
}

// OpenDefault acquires device 0 without any constraints.
func (Opener) OpenDefault() (camera.Stream, error) {
	capture, err := gocv.OpenVideoCapture(0)
	if err != nil {
		return nil, fmt.Errorf("failed to open default camera: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("default camera did not open")
	}
	return newStream(capture, "default"), nil
}

// stream wraps a VideoCapture and the reusable frame buffer.
type stream struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	label   string
	closed  bool
}

func newStream(capture *gocv.VideoCapture, label string) *stream {
	return &stream{
		capture: capture,
		mat:     gocv.NewMat(),
		label:   label,
	}
}

func (s *stream) Label() string {
	return s.label
}

// Snapshot reads the current frame and encodes it as JPEG. A frame that could
// not be read is returned with zero size so the caller skips the tick.
func (s *stream) Snapshot() (detection.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return detection.Frame{}, detection.ErrNoSource
	}

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return detection.Frame{}, nil
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.mat, []int{int(gocv.IMWriteJpegQuality), JPEGQuality})
	if err != nil {
		return detection.Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return detection.Frame{
		Data:       data,
		Width:      s.mat.Cols(),
		Height:     s.mat.Rows(),
		CapturedAt: time.Now(),
	}, nil
}

// Close releases the device. Further snapshots report no source.
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.capture.Close()
}
