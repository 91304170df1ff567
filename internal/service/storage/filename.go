package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"farmguardian/internal/model"
)

// SnapshotName is what an archived frame's filename encodes.
type SnapshotName struct {
	Timestamp time.Time
	Camera    string
	Labels    []string
}

// ParseSnapshotFilename reverses the "<timestamp>_<camera>_<label>_<label>.jpg" naming used by Flush.
func ParseSnapshotFilename(filename string) (SnapshotName, error) {
	name := strings.TrimSuffix(filepath.Base(filename), ".jpg")
	parts := strings.Split(name, "_")

	// data, godzina, sekundy.ms i kamera
	if len(parts) < 4 {
		return SnapshotName{}, fmt.Errorf("invalid filename format: %s", filename)
	}

	ts, err := time.ParseInLocation(timestampLayout, strings.Join(parts[:3], "_"), time.Local)
	if err != nil {
		return SnapshotName{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	parsed := SnapshotName{Timestamp: ts, Camera: parts[3]}
	for _, label := range parts[4:] {
		if label != "" {
			parsed.Labels = append(parsed.Labels, strings.ReplaceAll(label, "-", " "))
		}
	}
	return parsed, nil
}

// ScanSnapshots lists the .jpg frames under dir as snapshot records. Files that do not
// follow the archive naming are returned in skipped.
func ScanSnapshots(dir string) (snaps []model.Snapshot, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" {
			continue
		}

		parsed, err := ParseSnapshotFilename(entry.Name())
		if err != nil {
			skipped = append(skipped, entry.Name())
			continue
		}

		info, err := entry.Info()
		if err != nil {
			skipped = append(skipped, entry.Name())
			continue
		}

		snaps = append(snaps, model.Snapshot{
			Filename:  entry.Name(),
			Camera:    parsed.Camera,
			Timestamp: parsed.Timestamp,
			FilePath:  filepath.Join(dir, entry.Name()),
			FileSize:  info.Size(),
		})
	}
	return snaps, skipped, nil
}
