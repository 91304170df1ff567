package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"farmguardian/internal/config"
	"farmguardian/internal/dto"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/model"
	"farmguardian/internal/repository"
)

const (
	// DefaultImageBufferLimit limits how many frames per camera are kept between flushes.
	DefaultImageBufferLimit = 10
	// DefaultFlushInterval defines how often buffered detections are written to the archive.
	DefaultFlushInterval = 30 * time.Second
)

const timestampLayout = "2006-01-02_15-04_05.000"

// BufferService buffers detections and their frames in memory and periodically flushes them
// to disk and the archive database.
type BufferService struct {
	imagesDir     string
	limit         int
	interval      time.Duration
	pending       []dto.BufferedSnapshot
	bufferCount   map[string]int
	mu            sync.Mutex
	logger        *logger.Logger
	metrics       *metrics.Metrics
	snapshotRepo  repository.SnapshotRepository
	detectionRepo repository.DetectionRepository
}

// NewBufferService creates a new BufferService writing frames under the configured image directory.
func NewBufferService(config *config.Config, logger *logger.Logger, m *metrics.Metrics, snapshotRepo repository.SnapshotRepository, detectionRepo repository.DetectionRepository) *BufferService {
	limit := config.ImageBufferLimit
	if limit <= 0 {
		limit = DefaultImageBufferLimit
	}
	interval := time.Duration(config.ImageBufferFlushInterval) * time.Second
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	return &BufferService{
		imagesDir:     config.ImageDirectory,
		limit:         limit,
		interval:      interval,
		bufferCount:   make(map[string]int),
		logger:        logger,
		metrics:       m,
		snapshotRepo:  snapshotRepo,
		detectionRepo: detectionRepo,
	}
}

// Run flushes the buffer on every interval until ctx is cancelled, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Add buffers a detection. Consecutive detections sharing the same frame are archived under one snapshot.
func (s *BufferService) Add(d model.Detection, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.pending); n > 0 && sameFrame(s.pending[n-1].Frame, frame) {
		s.pending[n-1].Detections = append(s.pending[n-1].Detections, d)
		return
	}

	entry := dto.BufferedSnapshot{
		Camera:     d.CameraID,
		Timestamp:  d.Timestamp,
		Detections: []model.Detection{d},
	}
	if len(frame) > 0 && s.bufferCount[d.CameraID] < s.limit {
		entry.Frame = frame
		s.bufferCount[d.CameraID]++
		s.logger.Debug("Buffer size for camera %s: %d/%d", d.CameraID, s.bufferCount[d.CameraID], s.limit)
	}
	s.pending = append(s.pending, entry)
}

// Pending returns the number of buffered detections.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pending {
		n += len(p.Detections)
	}
	return n
}

// Flush writes buffered frames to disk and detections to the database, then resets the buffer.
// When the detection rows cannot be inserted they are queued again, linked to the frames
// already written, and retried on the next flush.
func (s *BufferService) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.bufferCount = make(map[string]int)
	s.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	savedFrames := 0
	var rows []model.ArchivedDetection
	for i, entry := range pending {
		if entry.SnapshotID == 0 {
			snapshotID, err := s.saveFrame(entry)
			if err != nil {
				s.logger.Error("Error saving frame for camera %s: %v", entry.Camera, err)
				s.metrics.ArchiveErrors.Add(1)
			} else if snapshotID > 0 {
				savedFrames++
			}
			pending[i].SnapshotID = snapshotID
		}
		// Klatka jest już na dysku, przy ponowieniu zostają same wiersze
		pending[i].Frame = nil

		for _, d := range entry.Detections {
			rows = append(rows, model.ArchivedDetection{Detection: d, SnapshotID: pending[i].SnapshotID})
		}
	}

	if s.detectionRepo != nil && len(rows) > 0 {
		if err := s.detectionRepo.InsertBatch(rows); err != nil {
			s.logger.Error("Error saving %d detections to database, will retry: %v", len(rows), err)
			s.metrics.ArchiveErrors.Add(1)
			s.requeue(pending)
			return
		}
		s.metrics.ArchivedDetections.Add(uint64(len(rows)))
	}

	s.logger.Info("Archived %d detections and %d frames", len(rows), savedFrames)
}

// requeue puts entries back in front of anything buffered since the swap.
func (s *BufferService) requeue(entries []dto.BufferedSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(entries, s.pending...)
}

func (s *BufferService) saveFrame(entry dto.BufferedSnapshot) (int64, error) {
	if len(entry.Frame) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	labels := make([]string, 0, len(entry.Detections))
	for _, d := range entry.Detections {
		labels = append(labels, strings.ReplaceAll(d.AnimalType, " ", "-"))
	}

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	filename := fmt.Sprintf("%s_%s_%s.jpg", ts.Format(timestampLayout), entry.Camera, strings.Join(labels, "_"))
	fullpath := filepath.Join(s.imagesDir, filename)

	if err := os.WriteFile(fullpath, entry.Frame, 0644); err != nil {
		return 0, fmt.Errorf("write %s: %w", filename, err)
	}

	if s.snapshotRepo == nil {
		return 0, nil
	}

	id, err := s.snapshotRepo.Insert(&model.Snapshot{
		Filename:  filename,
		Camera:    entry.Camera,
		Timestamp: ts,
		FilePath:  fullpath,
		FileSize:  int64(len(entry.Frame)),
	})
	if err != nil {
		return 0, fmt.Errorf("insert snapshot %s: %w", filename, err)
	}
	return id, nil
}

func sameFrame(a, b []byte) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
