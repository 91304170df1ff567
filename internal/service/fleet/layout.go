package fleet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Layout describes the cameras and devices installed on the farm.
type Layout struct {
	Cameras []Camera `toml:"camera"`
	Devices []Device `toml:"device"`
}

// DefaultLayout is the inventory used when no layout file exists.
func DefaultLayout() Layout {
	battery := func(v int) *int { return &v }
	return Layout{
		Cameras: []Camera{
			{ID: "cam-001", Name: "North Field Camera", Location: "Field A - North Entrance", Online: true, BatteryLevel: 85},
			{ID: "cam-002", Name: "South Gate Camera", Location: "Field B - South Gate", Online: true, BatteryLevel: 62},
			{ID: "cam-003", Name: "Water Source Camera", Location: "Near Water Tank", Online: false, BatteryLevel: 15},
		},
		Devices: []Device{
			{ID: "speaker-001", Name: "Ultrasonic Speaker", Type: DeviceSpeaker, Online: true, Intensity: 75, BatteryLevel: battery(90)},
			{ID: "lights-001", Name: "LED Strobe Lights", Type: DeviceLights, Online: true, Intensity: 80},
			{ID: "sprinkler-001", Name: "Water Sprinkler", Type: DeviceSprinkler, Online: false, Intensity: 60, BatteryLevel: battery(25)},
			{ID: "siren-001", Name: "Emergency Siren", Type: DeviceSiren, Online: true, Intensity: 50},
		},
	}
}

// LoadLayout reads a TOML layout. A missing file yields DefaultLayout and found=false.
func LoadLayout(path string) (Layout, bool, error) {
	if path == "" {
		return DefaultLayout(), false, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultLayout(), false, nil
	}
	if err != nil {
		return Layout{}, false, fmt.Errorf("open layout: %w", err)
	}
	defer file.Close()

	var layout Layout
	if err := toml.NewDecoder(file).Decode(&layout); err != nil {
		return Layout{}, false, fmt.Errorf("parse layout: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, false, err
	}
	return layout, true, nil
}

// Validate rejects layouts with empty or duplicate ids and unknown device types.
func (l Layout) Validate() error {
	seen := make(map[string]bool)
	for _, c := range l.Cameras {
		if c.ID == "" {
			return fmt.Errorf("layout: camera %q has no id", c.Name)
		}
		if seen[c.ID] {
			return fmt.Errorf("layout: duplicate id %s", c.ID)
		}
		seen[c.ID] = true
	}
	for _, d := range l.Devices {
		if d.ID == "" {
			return fmt.Errorf("layout: device %q has no id", d.Name)
		}
		if seen[d.ID] {
			return fmt.Errorf("layout: duplicate id %s", d.ID)
		}
		seen[d.ID] = true
		switch d.Type {
		case DeviceSpeaker, DeviceLights, DeviceSprinkler, DeviceSiren:
		default:
			return fmt.Errorf("layout: device %s has unknown type %q", d.ID, d.Type)
		}
	}
	return nil
}

// SaveLayout writes the layout to path as TOML.
func SaveLayout(path string, layout Layout) error {
	data, err := toml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace layout: %w", err)
	}
	return nil
}
