package www

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mainttrack/state"
	"mainttrack/store"
)

func (h *Handlers) apiListEquipment(w http.ResponseWriter, r *http.Request) {
	m := h.cache.Equipments()
	list := make([]state.Equipment, 0, len(m))
	for _, e := range m {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	h.jsonOK(w, list)
}

func (h *Handlers) apiEquipmentWithStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.jsonError(w, "missing id", http.StatusBadRequest)
		return
	}
	got := h.cache.EquipmentWithStatus(id)
	if got == nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, got)
}

func (h *Handlers) apiEquipmentBreakdowns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list := h.cache.BreakdownsByEquipment(id)
	if list == nil {
		list = []state.BreakdownReport{}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	h.jsonOK(w, list)
}

func (h *Handlers) apiListBreakdowns(w http.ResponseWriter, r *http.Request) {
	m := h.cache.BreakdownReports()
	list := make([]state.BreakdownReport, 0, len(m))
	for _, b := range m {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	h.jsonOK(w, list)
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{
		"status":      "ok",
		"feed":        h.feed.IsConnected(),
		"sync_active": h.coord.Active(),
		"sse_clients": h.eventHub.ClientCount(),
		"last_updated": map[string]any{
			"equipment":         zeroAsNull(h.cache.LastUpdated(state.EntityEquipment)),
			"equipment_status":  zeroAsNull(h.cache.LastUpdated(state.EntityStatus)),
			"breakdown_reports": zeroAsNull(h.cache.LastUpdated(state.EntityBreakdowns)),
		},
	})
}

func zeroAsNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

type createBreakdownRequest struct {
	EquipmentID string     `json:"equipment_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Symptoms    string     `json:"symptoms"`
	Urgency     string     `json:"urgency"`
	IssueType   string     `json:"issue_type"`
	ReportedBy  string     `json:"reported_by"`
	AssignedTo  string     `json:"assigned_to"`
	OccurredAt  *time.Time `json:"occurred_at"`
	Notes       string     `json:"notes"`
}

// apiCreateBreakdown writes the report to the system of record and applies
// it to the cache directly, without waiting for the feed round-trip. The
// cache apply triggers the breakdown status transition.
func (h *Handlers) apiCreateBreakdown(w http.ResponseWriter, r *http.Request) {
	var req createBreakdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.EquipmentID == "" || req.Title == "" {
		h.jsonError(w, "equipment_id and title are required", http.StatusBadRequest)
		return
	}
	if req.Urgency == "" {
		req.Urgency = "medium"
	}
	if req.IssueType == "" {
		req.IssueType = "mechanical"
	}

	now := time.Now()
	row := &store.BreakdownReport{
		ID:          uuid.New().String(),
		EquipmentID: req.EquipmentID,
		Title:       req.Title,
		Description: req.Description,
		Symptoms:    req.Symptoms,
		Urgency:     req.Urgency,
		IssueType:   req.IssueType,
		Status:      state.BreakdownReported,
		ReportedBy:  req.ReportedBy,
		AssignedTo:  req.AssignedTo,
		OccurredAt:  req.OccurredAt,
		Notes:       req.Notes,
	}
	if err := h.db.CreateBreakdownReport(row); err != nil {
		h.log.Error("create breakdown report", zap.Error(err))
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	b := state.BreakdownReport{
		ID:          row.ID,
		EquipmentID: row.EquipmentID,
		Title:       row.Title,
		Description: row.Description,
		Symptoms:    row.Symptoms,
		Urgency:     row.Urgency,
		IssueType:   row.IssueType,
		Status:      row.Status,
		ReportedBy:  row.ReportedBy,
		AssignedTo:  row.AssignedTo,
		OccurredAt:  row.OccurredAt,
		Notes:       row.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e, ok := h.cache.Equipments()[b.EquipmentID]; ok {
		b.EquipmentCategory = e.Category
		b.EquipmentNumber = e.Number
	}
	h.cache.AddBreakdownReport(b)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

type setStatusRequest struct {
	EquipmentID  string `json:"equipment_id"`
	Status       string `json:"status"`
	StatusReason string `json:"status_reason"`
	ChangedBy    string `json:"changed_by"`
}

var validStatuses = map[string]struct{}{
	state.StatusRunning:     {},
	state.StatusBreakdown:   {},
	state.StatusStandby:     {},
	state.StatusMaintenance: {},
	state.StatusStopped:     {},
}

func (h *Handlers) apiSetEquipmentStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.EquipmentID == "" {
		h.jsonError(w, "equipment_id is required", http.StatusBadRequest)
		return
	}
	if _, ok := validStatuses[req.Status]; !ok {
		h.jsonError(w, "invalid status", http.StatusBadRequest)
		return
	}

	now := time.Now()
	row := &store.EquipmentStatus{
		ID:              uuid.New().String(),
		EquipmentID:     req.EquipmentID,
		Status:          req.Status,
		StatusReason:    req.StatusReason,
		ChangedBy:       req.ChangedBy,
		StatusChangedAt: &now,
	}
	// The maintenance schedule survives a status transition; the upsert
	// replaces the whole row, so carry it into both the DB row and the
	// cache apply.
	prev, hadPrev := h.cache.EquipmentStatuses()[req.EquipmentID]
	if hadPrev {
		row.LastMaintenanceAt = prev.LastMaintenanceAt
		row.NextMaintenanceAt = prev.NextMaintenanceAt
	}
	if err := h.db.UpsertEquipmentStatus(row); err != nil {
		h.log.Error("upsert equipment status", zap.Error(err))
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	st := state.EquipmentStatus{
		ID:                row.ID,
		EquipmentID:       row.EquipmentID,
		Status:            row.Status,
		StatusReason:      row.StatusReason,
		ChangedBy:         row.ChangedBy,
		StatusChangedAt:   row.StatusChangedAt,
		LastMaintenanceAt: row.LastMaintenanceAt,
		NextMaintenanceAt: row.NextMaintenanceAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if hadPrev {
		st.CreatedAt = prev.CreatedAt
	}
	h.cache.UpdateEquipmentStatus(st)

	h.jsonOK(w, st)
}

func (h *Handlers) apiForceSync(w http.ResponseWriter, r *http.Request) {
	h.coord.ForceSyncAll(r.Context())
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
