package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"farmguardian/internal/model"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SQLite snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert adds a new snapshot record to the database.
func (r *SnapshotRepository) Insert(snap *model.Snapshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO snapshots (filename, camera, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?)
	`, snap.Filename, snap.Camera, snap.Timestamp.UTC(), snap.FilePath, snap.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a snapshot by its ID. A missing row yields nil without error.
func (r *SnapshotRepository) GetByID(id int64) (*model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var snap model.Snapshot
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, camera, timestamp, filepath, filesize
		FROM snapshots WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Filename, &snap.Camera, &snap.Timestamp, &snap.FilePath, &snap.FileSize)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// GetTotalSize returns the summed size in bytes of all archived frames.
func (r *SnapshotRepository) GetTotalSize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size sql.NullInt64
	if err := r.db.Conn().QueryRow(`SELECT SUM(filesize) FROM snapshots`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum snapshot sizes: %w", err)
	}
	return size.Int64, nil
}

// InsertBatch registers many snapshots in one transaction. Filenames already present are skipped.
func (r *SnapshotRepository) InsertBatch(snaps []model.Snapshot) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO snapshots (filename, camera, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare snapshot statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, snap := range snaps {
		result, err := stmt.Exec(snap.Filename, snap.Camera, snap.Timestamp.UTC(), snap.FilePath, snap.FileSize)
		if err != nil {
			return 0, fmt.Errorf("failed to insert snapshot %s: %w", snap.Filename, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return inserted, nil
}

// CountByCamera returns how many frames each camera has in the archive.
func (r *SnapshotRepository) CountByCamera() (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT camera, COUNT(*) FROM snapshots GROUP BY camera`)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var camera string
		var n int
		if err := rows.Scan(&camera, &n); err != nil {
			return nil, err
		}
		counts[camera] = n
	}
	return counts, rows.Err()
}
