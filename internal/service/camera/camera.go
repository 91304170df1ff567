package camera

import (
	"errors"
	"farmguardian/internal/logger"
	"farmguardian/internal/service/detection"
	"fmt"
	"strings"
)

var (
	// ErrNoDevice is returned when no video input could be opened.
	ErrNoDevice = errors.New("unable to access camera")
)

// Device is one enumerated video input.
type Device struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Hints are the resolution and frame-rate requested from a device.
type Hints struct {
	Width  int
	Height int
	FPS    int
}

// Stream is an acquired video stream. Close releases the device.
type Stream interface {
	detection.FrameSource
	Close() error
	Label() string
}

// Enumerator lists the available video inputs.
type Enumerator interface {
	Devices() ([]Device, error)
}

// Opener acquires streams.
type Opener interface {
	// Open acquires a specific device using the given hints.
	Open(dev Device, hints Hints) (Stream, error)
	// OpenDefault acquires whatever the system considers the default camera, without constraints.
	OpenDefault() (Stream, error)
}

var (
	preferredKeywords = []string{"webcam", "usb", "integrated"}
	excludedKeywords  = []string{"front", "back", "selfie", "facetime"}
)

// SelectDevice picks the desktop-webcam-like device. Devices labelled as a phone
// front/back/selfie/facetime camera are never chosen; among the rest a label naming
// a webcam wins, otherwise the first remaining device in order.
func SelectDevice(devices []Device) (Device, bool) {
	var fallback *Device
	for i, dev := range devices {
		if containsAny(dev.Label, excludedKeywords) {
			continue
		}
		if containsAny(dev.Label, preferredKeywords) {
			return dev, true
		}
		if fallback == nil {
			fallback = &devices[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Device{}, false
}

func containsAny(label string, keywords []string) bool {
	lower := strings.ToLower(label)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Acquire opens the preferred device with hints and falls back exactly once to an
// unconstrained default request. There is no retry loop.
func Acquire(enum Enumerator, opener Opener, hints Hints, logger *logger.Logger) (Stream, error) {
	var devices []Device
	if enum != nil {
		var err error
		devices, err = enum.Devices()
		if err != nil {
			logger.Warning("Failed to enumerate video devices: %v", err)
		}
	}

	dev, ok := SelectDevice(devices)
	if !ok {
		dev = Device{Index: 0, Label: "default"}
	}

	stream, err := opener.Open(dev, hints)
	if err == nil {
		logger.Info("📷 Camera acquired: %s (%dx%d@%d)", stream.Label(), hints.Width, hints.Height, hints.FPS)
		return stream, nil
	}
	logger.Warning("Error accessing camera %s: %v, falling back to default video request", dev.Label, err)

	stream, fallbackErr := opener.OpenDefault()
	if fallbackErr == nil {
		logger.Info("📷 Camera acquired with fallback request: %s", stream.Label())
		return stream, nil
	}

	logger.Error("Fallback camera access failed: %v", fallbackErr)
	return nil, fmt.Errorf("%w: %w", ErrNoDevice, errors.Join(err, fallbackErr))
}
