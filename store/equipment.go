package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Equipment struct {
	ID             string
	Number         string
	Name           string
	Category       string
	Location       string
	Manufacturer   string
	Model          string
	Specifications string
	InstalledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const equipmentSelectCols = `id, number, name, category, location, manufacturer, model, specifications, installed_at, created_at, updated_at`

func scanEquipment(row interface{ Scan(...any) error }) (*Equipment, error) {
	var e Equipment
	var installedAt, createdAt, updatedAt any
	err := row.Scan(&e.ID, &e.Number, &e.Name, &e.Category, &e.Location, &e.Manufacturer,
		&e.Model, &e.Specifications, &installedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.InstalledAt = parseTimePtr(installedAt)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func scanEquipmentRows(rows *sql.Rows) ([]*Equipment, error) {
	var list []*Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (db *DB) CreateEquipment(e *Equipment) error {
	_, err := db.Exec(db.Q(`INSERT INTO equipment (id, number, name, category, location, manufacturer, model, specifications, installed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Number, e.Name, e.Category, e.Location, e.Manufacturer, e.Model, e.Specifications, fmtTimePtr(e.InstalledAt))
	if err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

func (db *DB) UpdateEquipment(e *Equipment) error {
	_, err := db.Exec(db.Q(`UPDATE equipment SET number=?, name=?, category=?, location=?, manufacturer=?, model=?, specifications=?, installed_at=?, updated_at=datetime('now','localtime') WHERE id=?`),
		e.Number, e.Name, e.Category, e.Location, e.Manufacturer, e.Model, e.Specifications, fmtTimePtr(e.InstalledAt), e.ID)
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

func (db *DB) DeleteEquipment(id string) error {
	_, err := db.Exec(db.Q(`DELETE FROM equipment WHERE id=?`), id)
	return err
}

func (db *DB) GetEquipment(id string) (*Equipment, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM equipment WHERE id=?`, equipmentSelectCols)), id)
	return scanEquipment(row)
}

func (db *DB) GetEquipmentByNumber(number string) (*Equipment, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM equipment WHERE number=?`, equipmentSelectCols)), number)
	return scanEquipment(row)
}

func (db *DB) ListEquipment() ([]*Equipment, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM equipment ORDER BY created_at DESC`, equipmentSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipmentRows(rows)
}
