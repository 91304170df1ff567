package fleet

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrOffline  = errors.New("device is offline")
)

// DeviceType identifies what a deterrent does.
type DeviceType string

const (
	DeviceSpeaker   DeviceType = "speaker"
	DeviceLights    DeviceType = "lights"
	DeviceSprinkler DeviceType = "sprinkler"
	DeviceSiren     DeviceType = "siren"
)

// Camera is one field camera in the grid.
type Camera struct {
	ID            string     `json:"id" toml:"id"`
	Name          string     `json:"name" toml:"name"`
	Location      string     `json:"location" toml:"location"`
	Online        bool       `json:"isOnline" toml:"online"`
	BatteryLevel  int        `json:"batteryLevel" toml:"battery"`
	Monitoring    bool       `json:"isMonitoring" toml:"monitoring"`
	LastDetection *time.Time `json:"lastDetection,omitempty" toml:"-"`
}

// Device is a deterrent (speaker, lights, sprinkler, siren).
type Device struct {
	ID           string     `json:"id" toml:"id"`
	Name         string     `json:"name" toml:"name"`
	Type         DeviceType `json:"type" toml:"type"`
	Online       bool       `json:"isOnline" toml:"online"`
	Active       bool       `json:"isActive" toml:"active"`
	Intensity    int        `json:"intensity" toml:"intensity"`
	BatteryLevel *int       `json:"batteryLevel,omitempty" toml:"battery,omitempty"`
}

// Registry holds the camera grid and the deterrent devices.
type Registry struct {
	mu      sync.RWMutex
	cameras []Camera
	devices []Device

	layoutPath  string
	onSaveError func(error)
}

// NewRegistry builds a registry from a layout.
func NewRegistry(layout Layout) *Registry {
	r := &Registry{
		cameras: append([]Camera(nil), layout.Cameras...),
		devices: append([]Device(nil), layout.Devices...),
	}
	for i := range r.devices {
		r.devices[i].Intensity = clampIntensity(r.devices[i].Intensity)
	}
	return r
}

// PersistTo makes every change to the grid or the devices get written to path.
// Save failures go to onError; the in-memory state is kept either way.
func (r *Registry) PersistTo(path string, onError func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layoutPath = path
	r.onSaveError = onError
}

// Cameras returns a copy of every camera in insertion order.
func (r *Registry) Cameras() []Camera {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Camera, len(r.cameras))
	copy(out, r.cameras)
	return out
}

// Camera returns one camera by id.
func (r *Registry) Camera(id string) (Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.cameraIndex(id)
	if i < 0 {
		return Camera{}, fmt.Errorf("camera %s: %w", id, ErrNotFound)
	}
	return r.cameras[i], nil
}

// AddCamera appends a new online camera with a full battery.
func (r *Registry) AddCamera(name, location string) Camera {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.cameras) + 1
	id := fmt.Sprintf("cam-%03d", n)
	for r.cameraIndex(id) >= 0 {
		n++
		id = fmt.Sprintf("cam-%03d", n)
	}
	if name == "" {
		name = fmt.Sprintf("Camera %d", n)
	}
	if location == "" {
		location = "New Location"
	}

	cam := Camera{
		ID:           id,
		Name:         name,
		Location:     location,
		Online:       true,
		BatteryLevel: 100,
	}
	r.cameras = append(r.cameras, cam)
	r.persistLocked()
	return cam
}

// ToggleMonitoring flips a camera's monitoring flag. Offline cameras cannot be toggled.
func (r *Registry) ToggleMonitoring(id string) (Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.cameraIndex(id)
	if i < 0 {
		return Camera{}, fmt.Errorf("camera %s: %w", id, ErrNotFound)
	}
	if !r.cameras[i].Online {
		return r.cameras[i], fmt.Errorf("camera %s: %w", id, ErrOffline)
	}
	r.cameras[i].Monitoring = !r.cameras[i].Monitoring
	r.persistLocked()
	return r.cameras[i], nil
}

// SetLastDetection stamps the time of the latest detection on a camera. Unknown ids are ignored.
func (r *Registry) SetLastDetection(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.cameraIndex(id); i >= 0 {
		t := at
		r.cameras[i].LastDetection = &t
	}
}

// Devices returns a copy of every deterrent device.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// ActiveDevices counts devices that are currently running.
func (r *Registry) ActiveDevices() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, d := range r.devices {
		if d.Active {
			n++
		}
	}
	return n
}

// Toggle flips a device on or off. Offline devices cannot be toggled.
func (r *Registry) Toggle(id string) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.deviceIndex(id)
	if i < 0 {
		return Device{}, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	if !r.devices[i].Online {
		return r.devices[i], fmt.Errorf("device %s: %w", id, ErrOffline)
	}
	r.devices[i].Active = !r.devices[i].Active
	r.persistLocked()
	return r.devices[i], nil
}

// SetIntensity sets a device's intensity, clamped to 0-100.
func (r *Registry) SetIntensity(id string, value int) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.deviceIndex(id)
	if i < 0 {
		return Device{}, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	r.devices[i].Intensity = clampIntensity(value)
	r.persistLocked()
	return r.devices[i], nil
}

// Emergency activates every online device and leaves offline ones inactive.
func (r *Registry) Emergency() []Device {
	r.mu.Lock()
	for i := range r.devices {
		r.devices[i].Active = r.devices[i].Online
	}
	r.persistLocked()
	r.mu.Unlock()
	return r.Devices()
}

// DeactivateAll switches every device off.
func (r *Registry) DeactivateAll() []Device {
	r.mu.Lock()
	for i := range r.devices {
		r.devices[i].Active = false
	}
	r.persistLocked()
	r.mu.Unlock()
	return r.Devices()
}

// layoutLocked is a copy of the registry suitable for persisting.
func (r *Registry) layoutLocked() Layout {
	return Layout{
		Cameras: append([]Camera(nil), r.cameras...),
		Devices: append([]Device(nil), r.devices...),
	}
}

// persistLocked zapisuje układ, jeśli ustawiono ścieżkę. Wymaga r.mu.
func (r *Registry) persistLocked() {
	if r.layoutPath == "" {
		return
	}
	if err := SaveLayout(r.layoutPath, r.layoutLocked()); err != nil && r.onSaveError != nil {
		r.onSaveError(err)
	}
}

func (r *Registry) cameraIndex(id string) int {
	for i := range r.cameras {
		if r.cameras[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) deviceIndex(id string) int {
	for i := range r.devices {
		if r.devices[i].ID == id {
			return i
		}
	}
	return -1
}

func clampIntensity(v int) int {
	return min(max(v, 0), 100)
}
