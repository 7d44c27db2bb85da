package syncer

import (
	"bytes"
	"fmt"
	"time"

	"mainttrack/state"
	"mainttrack/store"
)

// flexTime accepts both RFC 3339 and the database's "2006-01-02 15:04:05"
// text form. Feed records carry whichever the publisher serialized.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	s := string(data)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	tt := t.Time
	return &tt
}

func (t *flexTime) or(fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return t.Time
}

// equipmentRecord is a feed row for the equipment table.
type equipmentRecord struct {
	ID             string    `json:"id"`
	Number         string    `json:"number"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Location       string    `json:"location"`
	Manufacturer   string    `json:"manufacturer"`
	Model          string    `json:"model"`
	Specifications string    `json:"specifications"`
	InstalledAt    *flexTime `json:"installed_at"`
	CreatedAt      *flexTime `json:"created_at"`
	UpdatedAt      *flexTime `json:"updated_at"`
}

func (r *equipmentRecord) toState() state.Equipment {
	return state.Equipment{
		ID:             r.ID,
		Number:         r.Number,
		Name:           r.Name,
		Category:       r.Category,
		Location:       r.Location,
		Manufacturer:   r.Manufacturer,
		Model:          r.Model,
		Specifications: r.Specifications,
		InstalledAt:    r.InstalledAt.ptr(),
		CreatedAt:      r.CreatedAt.or(time.Now()),
		UpdatedAt:      r.UpdatedAt.or(time.Now()),
	}
}

// statusRecord is a feed row for the equipment_status table.
type statusRecord struct {
	ID                string    `json:"id"`
	EquipmentID       string    `json:"equipment_id"`
	Status            string    `json:"status"`
	StatusReason      string    `json:"status_reason"`
	ChangedBy         string    `json:"changed_by"`
	StatusChangedAt   *flexTime `json:"status_changed_at"`
	LastMaintenanceAt *flexTime `json:"last_maintenance_at"`
	NextMaintenanceAt *flexTime `json:"next_maintenance_at"`
	CreatedAt         *flexTime `json:"created_at"`
	UpdatedAt         *flexTime `json:"updated_at"`
}

func (r *statusRecord) toState() state.EquipmentStatus {
	return state.EquipmentStatus{
		ID:                r.ID,
		EquipmentID:       r.EquipmentID,
		Status:            r.Status,
		StatusReason:      r.StatusReason,
		ChangedBy:         r.ChangedBy,
		StatusChangedAt:   r.StatusChangedAt.ptr(),
		LastMaintenanceAt: r.LastMaintenanceAt.ptr(),
		NextMaintenanceAt: r.NextMaintenanceAt.ptr(),
		CreatedAt:         r.CreatedAt.or(time.Now()),
		UpdatedAt:         r.UpdatedAt.or(time.Now()),
	}
}

// breakdownRecord is a feed row for the breakdown_reports table. The raw
// row carries no equipment category/number; those come from the joined
// bulk fetch only.
type breakdownRecord struct {
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipment_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Symptoms    string    `json:"symptoms"`
	Urgency     string    `json:"urgency"`
	IssueType   string    `json:"issue_type"`
	Status      string    `json:"status"`
	ReportedBy  string    `json:"reported_by"`
	AssignedTo  string    `json:"assigned_to"`
	OccurredAt  *flexTime `json:"occurred_at"`
	ResolvedAt  *flexTime `json:"resolved_at"`
	Notes       string    `json:"notes"`
	CreatedAt   *flexTime `json:"created_at"`
	UpdatedAt   *flexTime `json:"updated_at"`
}

func (r *breakdownRecord) toState() state.BreakdownReport {
	return state.BreakdownReport{
		ID:          r.ID,
		EquipmentID: r.EquipmentID,
		Title:       r.Title,
		Description: r.Description,
		Symptoms:    r.Symptoms,
		Urgency:     r.Urgency,
		IssueType:   r.IssueType,
		Status:      r.Status,
		ReportedBy:  r.ReportedBy,
		AssignedTo:  r.AssignedTo,
		OccurredAt:  r.OccurredAt.ptr(),
		ResolvedAt:  r.ResolvedAt.ptr(),
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.or(time.Now()),
		UpdatedAt:   r.UpdatedAt.or(time.Now()),
	}
}

// deleteRecord is the minimal shape needed from a delete event's old_record.
type deleteRecord struct {
	ID          string `json:"id"`
	EquipmentID string `json:"equipment_id"`
}

// --- store row translation (bulk fetch) ---

func equipmentFromStore(e *store.Equipment) state.Equipment {
	return state.Equipment{
		ID:             e.ID,
		Number:         e.Number,
		Name:           e.Name,
		Category:       e.Category,
		Location:       e.Location,
		Manufacturer:   e.Manufacturer,
		Model:          e.Model,
		Specifications: e.Specifications,
		InstalledAt:    e.InstalledAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func statusFromStore(s *store.EquipmentStatus) state.EquipmentStatus {
	return state.EquipmentStatus{
		ID:                s.ID,
		EquipmentID:       s.EquipmentID,
		Status:            s.Status,
		StatusReason:      s.StatusReason,
		ChangedBy:         s.ChangedBy,
		StatusChangedAt:   s.StatusChangedAt,
		LastMaintenanceAt: s.LastMaintenanceAt,
		NextMaintenanceAt: s.NextMaintenanceAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func breakdownFromStore(b *store.BreakdownReport) state.BreakdownReport {
	return state.BreakdownReport{
		ID:                b.ID,
		EquipmentID:       b.EquipmentID,
		EquipmentCategory: b.EquipmentCategory,
		EquipmentNumber:   b.EquipmentNumber,
		Title:             b.Title,
		Description:       b.Description,
		Symptoms:          b.Symptoms,
		Urgency:           b.Urgency,
		IssueType:         b.IssueType,
		Status:            b.Status,
		ReportedBy:        b.ReportedBy,
		AssignedTo:        b.AssignedTo,
		OccurredAt:        b.OccurredAt,
		ResolvedAt:        b.ResolvedAt,
		Notes:             b.Notes,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}
