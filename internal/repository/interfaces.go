package repository

import (
	"farmguardian/internal/dto"
	"farmguardian/internal/model"
)

// SnapshotRepository defines the interface for archived frame operations.
type SnapshotRepository interface {
	// Create operations
	Insert(snap *model.Snapshot) (int64, error)
	InsertBatch(snaps []model.Snapshot) (int, error)

	// Read operations
	GetByID(id int64) (*model.Snapshot, error)
	GetTotalSize() (int64, error)
	CountByCamera() (map[string]int, error)
}

// DetectionRepository defines the interface for archived detection operations.
type DetectionRepository interface {
	// Create operations
	Insert(det *model.ArchivedDetection) error
	InsertBatch(detections []model.ArchivedDetection) error

	// Read operations
	GetAll(filter *dto.ArchiveFilter) ([]model.ArchivedDetection, error)
	GetTotalCount(filter *dto.ArchiveFilter) (int, error)
	GetAllAnimalTypes() ([]string, error)
}
