package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"farmguardian/internal/config"
	"farmguardian/internal/dto"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/model"
	"farmguardian/internal/repository/sqlite"
)

// flakyDetections fails InsertBatch while fail is set.
type flakyDetections struct {
	*sqlite.DetectionRepository
	fail bool
}

func (f *flakyDetections) InsertBatch(rows []model.ArchivedDetection) error {
	if f.fail {
		return errors.New("database is locked")
	}
	return f.DetectionRepository.InsertBatch(rows)
}

type testArchive struct {
	buffer     *BufferService
	detections *sqlite.DetectionRepository
	snapshots  *sqlite.SnapshotRepository
	metrics    *metrics.Metrics
	imagesDir  string
}

func setupTestArchive(t *testing.T, limit int) *testArchive {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.New(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ImageDirectory:           filepath.Join(dir, "images"),
		ImageBufferLimit:         limit,
		ImageBufferFlushInterval: 1,
	}
	m := metrics.New()
	a := &testArchive{
		detections: sqlite.NewDetectionRepository(db),
		snapshots:  sqlite.NewSnapshotRepository(db),
		metrics:    m,
		imagesDir:  cfg.ImageDirectory,
	}
	a.buffer = NewBufferService(cfg, logger.NewWriterLogger(io.Discard, logger.LevelError), m, a.snapshots, a.detections)
	return a
}

func detectionAt(id, animal string, at time.Time) model.Detection {
	return model.Detection{ID: id, AnimalType: animal, Confidence: 0.9, CameraID: "cam-001", Timestamp: at, Source: model.SourceClassifier}
}

func TestBufferService_FlushWritesFramesAndRows(t *testing.T) {
	a := setupTestArchive(t, 10)
	now := time.Now()

	frame := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	a.buffer.Add(detectionAt("1", "cow", now), frame)
	a.buffer.Add(detectionAt("2", "sheep", now), frame)
	a.buffer.Add(model.Detection{ID: "3", AnimalType: "fox", CameraID: "cam-001", Timestamp: now, Source: model.SourceDemo}, nil)

	if got := a.buffer.Pending(); got != 3 {
		t.Fatalf("expected 3 pending detections, got %d", got)
	}

	a.buffer.Flush()

	if got := a.buffer.Pending(); got != 0 {
		t.Errorf("expected empty buffer after flush, got %d", got)
	}

	entries, err := os.ReadDir(a.imagesDir)
	if err != nil {
		t.Fatalf("read images dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one frame shared by two detections, got %d files", len(entries))
	}

	rows, err := a.detections.GetAll(&dto.ArchiveFilter{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 archived rows, got %d", len(rows))
	}

	withSnapshot := 0
	for _, r := range rows {
		if r.SnapshotID > 0 {
			withSnapshot++
		}
	}
	if withSnapshot != 2 {
		t.Errorf("expected 2 rows linked to the frame, got %d", withSnapshot)
	}
	if got := a.metrics.ArchivedDetections.Load(); got != 3 {
		t.Errorf("expected archived metric 3, got %d", got)
	}
}

func TestBufferService_FrameLimitPerCamera(t *testing.T) {
	a := setupTestArchive(t, 2)
	now := time.Now()

	for i := 0; i < 5; i++ {
		frame := []byte{byte(i), 1, 2, 3}
		a.buffer.Add(detectionAt(string(rune('a'+i)), "deer", now.Add(time.Duration(i)*time.Second)), frame)
	}
	a.buffer.Flush()

	entries, err := os.ReadDir(a.imagesDir)
	if err != nil {
		t.Fatalf("read images dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 frames saved, got %d", len(entries))
	}

	count, err := a.detections.GetTotalCount(nil)
	if err != nil {
		t.Fatalf("GetTotalCount: %v", err)
	}
	if count != 5 {
		t.Errorf("expected every detection archived, got %d", count)
	}
}

func TestBufferService_FlushEmptyIsNoop(t *testing.T) {
	a := setupTestArchive(t, 10)
	a.buffer.Flush()

	if _, err := os.Stat(a.imagesDir); !os.IsNotExist(err) {
		t.Errorf("expected images dir to not be created, got %v", err)
	}
}

func TestBufferService_FailedInsertIsRetried(t *testing.T) {
	a := setupTestArchive(t, 10)
	flaky := &flakyDetections{DetectionRepository: a.detections, fail: true}
	cfg := &config.Config{ImageDirectory: a.imagesDir}
	a.buffer = NewBufferService(cfg, logger.NewWriterLogger(io.Discard, logger.LevelError), a.metrics, a.snapshots, flaky)

	now := time.Now()
	frame := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	a.buffer.Add(detectionAt("1", "cow", now), frame)
	a.buffer.Add(detectionAt("2", "sheep", now), frame)
	a.buffer.Flush()

	if got := a.buffer.Pending(); got != 2 {
		t.Fatalf("expected 2 detections kept after failed insert, got %d", got)
	}
	if got := a.metrics.ArchiveErrors.Load(); got != 1 {
		t.Errorf("expected archive error metric 1, got %d", got)
	}

	a.buffer.Add(detectionAt("3", "fox", now.Add(time.Second)), nil)
	flaky.fail = false
	a.buffer.Flush()

	if got := a.buffer.Pending(); got != 0 {
		t.Errorf("expected empty buffer after retry, got %d", got)
	}

	rows, err := a.detections.GetAll(nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 archived rows, got %d", len(rows))
	}
	linked := 0
	for _, r := range rows {
		if r.SnapshotID > 0 {
			linked++
		}
	}
	if linked != 2 {
		t.Errorf("expected retried rows linked to the saved frame, got %d linked", linked)
	}

	entries, err := os.ReadDir(a.imagesDir)
	if err != nil {
		t.Fatalf("read images dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected the frame written once, got %d files", len(entries))
	}
	counts, err := a.snapshots.CountByCamera()
	if err != nil {
		t.Fatalf("CountByCamera: %v", err)
	}
	if counts["cam-001"] != 1 {
		t.Errorf("expected one snapshot row, got %v", counts)
	}
}

func TestNewBufferService_Defaults(t *testing.T) {
	b := NewBufferService(&config.Config{}, nil, metrics.New(), nil, nil)
	if b.limit != DefaultImageBufferLimit || b.interval != DefaultFlushInterval {
		t.Errorf("expected defaults %d/%v, got %d/%v", DefaultImageBufferLimit, DefaultFlushInterval, b.limit, b.interval)
	}
}
