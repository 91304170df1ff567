package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"farmguardian/internal/config"
	"farmguardian/internal/logger"
	"farmguardian/internal/model"
	"farmguardian/internal/service/detection"

	"gocv.io/x/gocv"
)

// DefaultDetectionThreshold is the minimum score the network must report.
const DefaultDetectionThreshold = 0.5

// inputSize is the SSD MobileNet input resolution.
var inputSize = image.Pt(300, 300)

// DetectorService runs an SSD object-detection network through OpenCV's DNN module.
type DetectorService struct {
	net        gocv.Net
	threshold  float32
	modelPath  string
	configPath string
	backend    string
	logger     *logger.Logger
	mu         sync.Mutex // gocv.Net nie jest bezpieczny wątkowo
}

type backendChoice struct {
	name    string
	backend gocv.NetBackendType
	target  gocv.NetTargetType
}

var (
	acceleratedBackend = backendChoice{name: "cuda", backend: gocv.NetBackendCUDA, target: gocv.NetTargetCUDA}
	cpuBackend         = backendChoice{name: "cpu", backend: gocv.NetBackendDefault, target: gocv.NetTargetCPU}
)

// Loaders returns the accelerated and CPU loaders, in the order they should be tried.
func Loaders(cfg *config.Config, logger *logger.Logger) []detection.Loader {
	load := func(choice backendChoice) func() (detection.Classifier, error) {
		return func() (detection.Classifier, error) {
			return newDetectorService(cfg, choice, logger)
		}
	}
	return []detection.Loader{
		{Name: acceleratedBackend.name, Load: load(acceleratedBackend)},
		{Name: cpuBackend.name, Load: load(cpuBackend)},
	}
}

// newDetectorService loads the network on the given backend and checks it with a warm-up pass.
func newDetectorService(cfg *config.Config, choice backendChoice, logger *logger.Logger) (*DetectorService, error) {
	threshold := cfg.DetectionThreshold
	if threshold <= 0 {
		threshold = DefaultDetectionThreshold
	}

	service := &DetectorService{
		threshold:  float32(threshold),
		modelPath:  cfg.ModelPath,
		configPath: cfg.ConfigPath,
		backend:    choice.name,
		logger:     logger,
	}

	if err := service.initializeNet(choice); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet(choice backendChoice) error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(choice.backend)
	errTarget := net.SetPreferableTarget(choice.target)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set %s backend or target", choice.name)
	}

	if err := warmUp(&net); err != nil {
		net.Close()
		return fmt.Errorf("%s warm-up failed: %w", choice.name, err)
	}

	s.net = net
	s.logger.Info("Detection network initialized on %s", choice.name)
	return nil
}

func warmUp(net *gocv.Net) (err error) {
	// OpenCV zgłasza brak CUDA wyjątkiem dopiero przy pierwszym Forward
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forward pass panicked: %v", r)
		}
	}()

	blank := gocv.NewMatWithSize(inputSize.Y, inputSize.X, gocv.MatTypeCV8UC3)
	defer blank.Close()

	blob := gocv.BlobFromImage(blank, 1.0/127.5, inputSize, gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	if output.Empty() {
		return fmt.Errorf("empty network output")
	}
	return nil
}

// Backend returns the backend the network was loaded on.
func (s *DetectorService) Backend() string {
	return s.backend
}

// Classify decodes the frame and returns every detection above the network threshold.
func (s *DetectorService) Classify(ctx context.Context, frame detection.Frame) ([]model.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net.Empty() {
		return nil, detection.ErrNotInitialized
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, inputSize, gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	return parseSSDOutput(output, mat.Cols(), mat.Rows(), s.threshold), nil
}

// parseSSDOutput reads the [1,1,N,7] SSD tensor: image id, class id, score, x1, y1, x2, y2.
func parseSSDOutput(output gocv.Mat, cols, rows int, threshold float32) []model.RawResult {
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	var results []model.RawResult
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := reshaped.GetFloatAt(i, 2)
		if confidence <= threshold {
			continue
		}

		classID := int(reshaped.GetFloatAt(i, 1))
		results = append(results, model.RawResult{
			Label: ClassLabel(classID),
			Score: float64(confidence),
			Box: model.RawBox{
				XMin: float64(reshaped.GetFloatAt(i, 3) * float32(cols)),
				YMin: float64(reshaped.GetFloatAt(i, 4) * float32(rows)),
				XMax: float64(reshaped.GetFloatAt(i, 5) * float32(cols)),
				YMax: float64(reshaped.GetFloatAt(i, 6) * float32(rows)),
			},
		})
	}
	return results
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
