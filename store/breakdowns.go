package store

import (
	"database/sql"
	"fmt"
	"time"
)

type BreakdownReport struct {
	ID          string
	EquipmentID string
	// Denormalized from the equipment table by the list queries.
	EquipmentCategory string
	EquipmentNumber   string
	Title             string
	Description       string
	Symptoms          string
	Urgency           string
	IssueType         string
	Status            string
	ReportedBy        string
	AssignedTo        string
	OccurredAt        *time.Time
	ResolvedAt        *time.Time
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const breakdownSelectCols = `b.id, b.equipment_id, COALESCE(e.category, ''), COALESCE(e.number, ''),
	b.title, b.description, b.symptoms, b.urgency, b.issue_type, b.status,
	b.reported_by, b.assigned_to, b.occurred_at, b.resolved_at, b.notes, b.created_at, b.updated_at`

func scanBreakdown(row interface{ Scan(...any) error }) (*BreakdownReport, error) {
	var b BreakdownReport
	var occurredAt, resolvedAt, createdAt, updatedAt any
	err := row.Scan(&b.ID, &b.EquipmentID, &b.EquipmentCategory, &b.EquipmentNumber,
		&b.Title, &b.Description, &b.Symptoms, &b.Urgency, &b.IssueType, &b.Status,
		&b.ReportedBy, &b.AssignedTo, &occurredAt, &resolvedAt, &b.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.OccurredAt = parseTimePtr(occurredAt)
	b.ResolvedAt = parseTimePtr(resolvedAt)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func scanBreakdownRows(rows *sql.Rows) ([]*BreakdownReport, error) {
	var list []*BreakdownReport
	for rows.Next() {
		b, err := scanBreakdown(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (db *DB) CreateBreakdownReport(b *BreakdownReport) error {
	_, err := db.Exec(db.Q(`INSERT INTO breakdown_reports (id, equipment_id, title, description, symptoms, urgency, issue_type, status, reported_by, assigned_to, occurred_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.EquipmentID, b.Title, b.Description, b.Symptoms, b.Urgency, b.IssueType,
		b.Status, b.ReportedBy, b.AssignedTo, fmtTimePtr(b.OccurredAt), b.Notes)
	if err != nil {
		return fmt.Errorf("create breakdown report: %w", err)
	}
	return nil
}

func (db *DB) UpdateBreakdownStatus(id, status, notes string, resolvedAt *time.Time) error {
	_, err := db.Exec(db.Q(`UPDATE breakdown_reports SET status=?, notes=?, resolved_at=?, updated_at=datetime('now','localtime') WHERE id=?`),
		status, notes, fmtTimePtr(resolvedAt), id)
	if err != nil {
		return fmt.Errorf("update breakdown status: %w", err)
	}
	return nil
}

func (db *DB) GetBreakdownReport(id string) (*BreakdownReport, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM breakdown_reports b LEFT JOIN equipment e ON e.id = b.equipment_id WHERE b.id=?`, breakdownSelectCols)), id)
	return scanBreakdown(row)
}

// ListBreakdownReports returns all reports with equipment category/number
// joined in, newest first.
func (db *DB) ListBreakdownReports() ([]*BreakdownReport, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM breakdown_reports b LEFT JOIN equipment e ON e.id = b.equipment_id ORDER BY b.created_at DESC`, breakdownSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBreakdownRows(rows)
}

func (db *DB) ListBreakdownsByEquipment(equipmentID string) ([]*BreakdownReport, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM breakdown_reports b LEFT JOIN equipment e ON e.id = b.equipment_id WHERE b.equipment_id=? ORDER BY b.created_at DESC`, breakdownSelectCols)), equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBreakdownRows(rows)
}
