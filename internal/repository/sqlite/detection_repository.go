package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"farmguardian/internal/dto"
	"farmguardian/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

const insertDetection = `
	INSERT INTO detections (id, snapshot_id, camera, animal_type, confidence, has_box, x, y, width, height, source, detected_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func detectionArgs(det *model.ArchivedDetection) []interface{} {
	var snapshotID sql.NullInt64
	if det.SnapshotID > 0 {
		snapshotID = sql.NullInt64{Int64: det.SnapshotID, Valid: true}
	}

	var box model.BoundingBox
	hasBox := det.BoundingBox != nil
	if hasBox {
		box = *det.BoundingBox
	}

	return []interface{}{
		det.ID, snapshotID, det.CameraID, det.AnimalType, det.Confidence,
		hasBox, box.X, box.Y, box.Width, box.Height,
		string(det.Source), det.Timestamp.UTC(),
	}
}

// Insert adds a new detection record to the database.
func (r *DetectionRepository) Insert(det *model.ArchivedDetection) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(insertDetection, detectionArgs(det)...); err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// InsertBatch adds multiple detections in a single transaction.
func (r *DetectionRepository) InsertBatch(detections []model.ArchivedDetection) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertDetection)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range detections {
		if _, err := stmt.Exec(detectionArgs(&detections[i])...); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return tx.Commit()
}

func whereClause(filter *dto.ArchiveFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter == nil {
		return sb.String(), args
	}

	if filter.Camera != "" {
		sb.WriteString(" AND camera = ?")
		args = append(args, filter.Camera)
	}

	if filter.AnimalType != "" {
		sb.WriteString(" AND LOWER(animal_type) = LOWER(?)")
		args = append(args, filter.AnimalType)
	}

	if !filter.After.IsZero() {
		sb.WriteString(" AND detected_at >= ?")
		args = append(args, filter.After.UTC())
	}

	if !filter.Before.IsZero() {
		sb.WriteString(" AND detected_at <= ?")
		args = append(args, filter.Before.UTC())
	}

	return sb.String(), args
}

// GetAll retrieves detections matching the filter, newest first.
func (r *DetectionRepository) GetAll(filter *dto.ArchiveFilter) ([]model.ArchivedDetection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `
		SELECT id, snapshot_id, camera, animal_type, confidence, has_box, x, y, width, height, source, detected_at
		FROM detections` + where + " ORDER BY detected_at DESC, rowid DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.ArchivedDetection
	for rows.Next() {
		var (
			det        model.ArchivedDetection
			snapshotID sql.NullInt64
			hasBox     bool
			box        model.BoundingBox
			source     string
		)
		if err := rows.Scan(&det.ID, &snapshotID, &det.CameraID, &det.AnimalType, &det.Confidence,
			&hasBox, &box.X, &box.Y, &box.Width, &box.Height, &source, &det.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		det.SnapshotID = snapshotID.Int64
		det.Source = model.Source(source)
		if hasBox {
			det.BoundingBox = &box
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// GetTotalCount returns the number of detections matching the filter.
func (r *DetectionRepository) GetTotalCount(filter *dto.ArchiveFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM detections"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count detections: %w", err)
	}

	return count, nil
}

// GetAllAnimalTypes returns a list of all unique archived animal labels.
func (r *DetectionRepository) GetAllAnimalTypes() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT animal_type FROM detections ORDER BY animal_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query animal types: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan animal type: %w", err)
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}
