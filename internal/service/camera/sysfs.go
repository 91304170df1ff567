package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SysfsEnumerator lists V4L2 capture devices from /sys/class/video4linux.
type SysfsEnumerator struct {
	Root string // domyślnie /sys/class/video4linux
	Dev  string // domyślnie /dev
}

// Devices returns the video inputs sorted by index.
func (e SysfsEnumerator) Devices() ([]Device, error) {
	root := e.Root
	if root == "" {
		root = "/sys/class/video4linux"
	}
	devDir := e.Dev
	if devDir == "" {
		devDir = "/dev"
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var devices []Device
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "video") {
			continue
		}
		index, err := strconv.Atoi(strings.TrimPrefix(name, "video"))
		if err != nil {
			continue
		}

		// Jedno urządzenie UVC wystawia kilka węzłów; index 0 to strumień obrazu
		if raw, err := os.ReadFile(filepath.Join(root, name, "index")); err == nil {
			if strings.TrimSpace(string(raw)) != "0" {
				continue
			}
		}

		label := name
		if raw, err := os.ReadFile(filepath.Join(root, name, "name")); err == nil {
			if trimmed := strings.TrimSpace(string(raw)); trimmed != "" {
				label = trimmed
			}
		}

		devices = append(devices, Device{
			Index: index,
			Path:  filepath.Join(devDir, name),
			Label: label,
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Index < devices[j].Index })
	return devices, nil
}
