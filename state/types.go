package state

import "time"

// Equipment status values.
const (
	StatusRunning     = "running"
	StatusBreakdown   = "breakdown"
	StatusStandby     = "standby"
	StatusMaintenance = "maintenance"
	StatusStopped     = "stopped"
)

// Breakdown report statuses.
const (
	BreakdownReported   = "reported"
	BreakdownAssigned   = "assigned"
	BreakdownInProgress = "in_progress"
	BreakdownResolved   = "resolved"
	BreakdownCompleted  = "completed"
	BreakdownRejected   = "rejected"
	BreakdownCancelled  = "cancelled"
)

// Equipment is a cached copy of an equipment row in the system of record.
type Equipment struct {
	ID             string     `json:"id"`
	Number         string     `json:"number"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Location       string     `json:"location,omitempty"`
	Manufacturer   string     `json:"manufacturer,omitempty"`
	Model          string     `json:"model,omitempty"`
	Specifications string     `json:"specifications,omitempty"`
	InstalledAt    *time.Time `json:"installed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EquipmentStatus is the single current status record for one equipment.
type EquipmentStatus struct {
	ID                string     `json:"id"`
	EquipmentID       string     `json:"equipment_id"`
	Status            string     `json:"status"`
	StatusReason      string     `json:"status_reason,omitempty"`
	ChangedBy         string     `json:"changed_by,omitempty"`
	StatusChangedAt   *time.Time `json:"status_changed_at,omitempty"`
	LastMaintenanceAt *time.Time `json:"last_maintenance_at,omitempty"`
	NextMaintenanceAt *time.Time `json:"next_maintenance_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BreakdownReport carries the equipment category/number denormalized at
// fetch time so consumers never need a live join.
type BreakdownReport struct {
	ID                string     `json:"id"`
	EquipmentID       string     `json:"equipment_id"`
	EquipmentCategory string     `json:"equipment_category,omitempty"`
	EquipmentNumber   string     `json:"equipment_number,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Symptoms          string     `json:"symptoms,omitempty"`
	Urgency           string     `json:"urgency"`
	IssueType         string     `json:"issue_type"`
	Status            string     `json:"status"`
	ReportedBy        string     `json:"reported_by,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	OccurredAt        *time.Time `json:"occurred_at,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// EquipmentWithStatus is the derived equipment + current status view.
// Status is nil when no status record exists yet; that is not an error.
type EquipmentWithStatus struct {
	Equipment Equipment        `json:"equipment"`
	Status    *EquipmentStatus `json:"status,omitempty"`
}
