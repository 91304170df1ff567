package detection

import (
	"context"
	"errors"
	"farmguardian/internal/logger"
	"farmguardian/internal/model"
	"fmt"
	"time"
)

var (
	// ErrNotInitialized is returned when no classifier could be loaded.
	ErrNotInitialized = errors.New("classifier not initialized")
	// ErrNoSource is returned by a FrameSource that has no active stream.
	ErrNoSource = errors.New("no active video source")
)

// Frame is a still image captured from the video source.
type Frame struct {
	Data       []byte // JPEG
	Width      int
	Height     int
	CapturedAt time.Time
}

// Empty reports whether the frame has no intrinsic size.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0
}

// Classifier is the opaque object-detection capability: one still image in,
// an ordered list of labelled boxes out.
type Classifier interface {
	Classify(ctx context.Context, frame Frame) ([]model.RawResult, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, frame Frame) ([]model.RawResult, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, frame Frame) ([]model.RawResult, error) {
	return f(ctx, frame)
}

// Loader builds a classifier with one particular backend.
type Loader struct {
	Name string
	Load func() (Classifier, error)
}

// InitClassifier tries each loader in order and returns the first that succeeds.
// Failures before the last loader are logged as warnings; if every loader
// fails the combined error is returned and the caller is expected to run
// without a classifier for the rest of the session.
func InitClassifier(logger *logger.Logger, loaders ...Loader) (Classifier, error) {
	if len(loaders) == 0 {
		return nil, ErrNotInitialized
	}

	var errs []error
	for i, loader := range loaders {
		classifier, err := loader.Load()
		if err == nil && classifier != nil {
			logger.Info("🤖 Classifier initialized with %s backend", loader.Name)
			return classifier, nil
		}
		if err == nil {
			err = ErrNotInitialized
		}
		errs = append(errs, fmt.Errorf("%s: %w", loader.Name, err))

		if i < len(loaders)-1 {
			logger.Warning("%s backend not available, falling back to %s", loader.Name, loaders[i+1].Name)
		}
	}

	err := fmt.Errorf("%w: %w", ErrNotInitialized, errors.Join(errs...))
	logger.Error("Failed to initialize classifier: %v", err)
	return nil, err
}
