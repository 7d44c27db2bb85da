package store

import (
	"database/sql"
	"fmt"
	"time"
)

type EquipmentStatus struct {
	ID                string
	EquipmentID       string
	Status            string
	StatusReason      string
	ChangedBy         string
	StatusChangedAt   *time.Time
	LastMaintenanceAt *time.Time
	NextMaintenanceAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const statusSelectCols = `id, equipment_id, status, status_reason, changed_by, status_changed_at, last_maintenance_at, next_maintenance_at, created_at, updated_at`

func scanEquipmentStatus(row interface{ Scan(...any) error }) (*EquipmentStatus, error) {
	var s EquipmentStatus
	var statusChangedAt, lastMaint, nextMaint, createdAt, updatedAt any
	err := row.Scan(&s.ID, &s.EquipmentID, &s.Status, &s.StatusReason, &s.ChangedBy,
		&statusChangedAt, &lastMaint, &nextMaint, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	s.StatusChangedAt = parseTimePtr(statusChangedAt)
	s.LastMaintenanceAt = parseTimePtr(lastMaint)
	s.NextMaintenanceAt = parseTimePtr(nextMaint)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func scanEquipmentStatusRows(rows *sql.Rows) ([]*EquipmentStatus, error) {
	var list []*EquipmentStatus
	for rows.Next() {
		s, err := scanEquipmentStatus(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpsertEquipmentStatus inserts or replaces the single current status row for
// an equipment. One row per equipment is enforced by the unique constraint.
func (db *DB) UpsertEquipmentStatus(s *EquipmentStatus) error {
	_, err := db.Exec(db.Q(`INSERT INTO equipment_status (id, equipment_id, status, status_reason, changed_by, status_changed_at, last_maintenance_at, next_maintenance_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(equipment_id) DO UPDATE SET
			id=excluded.id,
			status=excluded.status,
			status_reason=excluded.status_reason,
			changed_by=excluded.changed_by,
			status_changed_at=excluded.status_changed_at,
			last_maintenance_at=excluded.last_maintenance_at,
			next_maintenance_at=excluded.next_maintenance_at,
			updated_at=datetime('now','localtime')`),
		s.ID, s.EquipmentID, s.Status, s.StatusReason, s.ChangedBy,
		fmtTimePtr(s.StatusChangedAt), fmtTimePtr(s.LastMaintenanceAt), fmtTimePtr(s.NextMaintenanceAt))
	if err != nil {
		return fmt.Errorf("upsert equipment status: %w", err)
	}
	return nil
}

func (db *DB) GetEquipmentStatus(equipmentID string) (*EquipmentStatus, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM equipment_status WHERE equipment_id=?`, statusSelectCols)), equipmentID)
	return scanEquipmentStatus(row)
}

func (db *DB) ListEquipmentStatuses() ([]*EquipmentStatus, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM equipment_status ORDER BY created_at DESC`, statusSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipmentStatusRows(rows)
}

func (db *DB) DeleteEquipmentStatus(equipmentID string) error {
	_, err := db.Exec(db.Q(`DELETE FROM equipment_status WHERE equipment_id=?`), equipmentID)
	return err
}
