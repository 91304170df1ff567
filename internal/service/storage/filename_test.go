package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParseSnapshotFilename(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		wantCamera string
		wantLabels []string
		wantErr    bool
	}{
		{"two labels", "2026-10-14_07-30_15.250_cam-001_cow_teddy-bear.jpg", "cam-001", []string{"cow", "teddy bear"}, false},
		{"no labels", "2026-10-14_07-30_15.250_cam-002.jpg", "cam-002", nil, false},
		{"too short", "2026-10-14_cam.jpg", "", nil, true},
		{"bad timestamp", "yesterday_noon_x_cam-001_cow.jpg", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSnapshotFilename(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.filename)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Camera != tt.wantCamera {
				t.Errorf("camera = %q, want %q", got.Camera, tt.wantCamera)
			}
			if !reflect.DeepEqual(got.Labels, tt.wantLabels) {
				t.Errorf("labels = %v, want %v", got.Labels, tt.wantLabels)
			}
			want := time.Date(2026, 10, 14, 7, 30, 15, 250_000_000, time.Local)
			if !got.Timestamp.Equal(want) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, want)
			}
		})
	}
}

func TestScanSnapshots_RoundTripsFlushedFrames(t *testing.T) {
	a := setupTestArchive(t, 10)
	at := time.Date(2026, 10, 14, 6, 0, 0, 0, time.Local)

	frame := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	a.buffer.Add(detectionAt("1", "cow", at), frame)
	a.buffer.Add(detectionAt("2", "teddy bear", at), frame)
	a.buffer.Flush()

	if err := os.WriteFile(filepath.Join(a.imagesDir, "notes.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	snaps, skipped, err := ScanSnapshots(a.imagesDir)
	if err != nil {
		t.Fatalf("ScanSnapshots failed: %v", err)
	}
	if len(snaps) != 1 || len(skipped) != 1 {
		t.Fatalf("expected 1 snapshot and 1 skipped file, got %d and %v", len(snaps), skipped)
	}
	if snaps[0].Camera != "cam-001" || !snaps[0].Timestamp.Equal(at) || snaps[0].FileSize != int64(len(frame)) {
		t.Errorf("unexpected snapshot: %+v", snaps[0])
	}

	// Flush zarejestrował już tę klatkę
	inserted, err := a.snapshots.InsertBatch(snaps)
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("expected known frame to be skipped, inserted %d", inserted)
	}

	counts, err := a.snapshots.CountByCamera()
	if err != nil {
		t.Fatalf("CountByCamera failed: %v", err)
	}
	if counts["cam-001"] != 1 {
		t.Errorf("expected 1 frame for cam-001, got %v", counts)
	}
}
