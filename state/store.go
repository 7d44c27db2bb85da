package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-memory cache of the system of record. It owns the three
// entity maps, is the only writer to them, and publishes a change event for
// every mutation. Read accessors return copies; callers never get a mutable
// handle to the maps.
//
// The status map is keyed by equipment ID, which enforces the one current
// status record per equipment invariant structurally.
type Store struct {
	Events *Notifier

	mu          sync.RWMutex
	equipment   map[string]Equipment
	statuses    map[string]EquipmentStatus
	breakdowns  map[string]BreakdownReport
	lastUpdated map[Entity]time.Time
}

// New creates an empty Store with its own Notifier.
func New() *Store {
	return &Store{
		Events:      NewNotifier(),
		equipment:   make(map[string]Equipment),
		statuses:    make(map[string]EquipmentStatus),
		breakdowns:  make(map[string]BreakdownReport),
		lastUpdated: make(map[Entity]time.Time),
	}
}

// --- Bulk replace (full resync) ---

// SetEquipments atomically replaces the equipment map.
func (s *Store) SetEquipments(list []Equipment) {
	s.mu.Lock()
	m := make(map[string]Equipment, len(list))
	for _, e := range list {
		m[e.ID] = e
	}
	s.equipment = m
	s.lastUpdated[EntityEquipment] = time.Now()
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityEquipment, Action: ActionRefresh, Data: len(list)})
}

// SetEquipmentStatuses atomically replaces the status map. Rows are keyed
// by equipment ID; a later row for the same equipment wins.
func (s *Store) SetEquipmentStatuses(list []EquipmentStatus) {
	s.mu.Lock()
	m := make(map[string]EquipmentStatus, len(list))
	for _, st := range list {
		m[st.EquipmentID] = st
	}
	s.statuses = m
	s.lastUpdated[EntityStatus] = time.Now()
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityStatus, Action: ActionRefresh, Data: len(list)})
}

// SetBreakdownReports atomically replaces the breakdown map.
func (s *Store) SetBreakdownReports(list []BreakdownReport) {
	s.mu.Lock()
	m := make(map[string]BreakdownReport, len(list))
	for _, b := range list {
		m[b.ID] = b
	}
	s.breakdowns = m
	s.lastUpdated[EntityBreakdowns] = time.Now()
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityBreakdowns, Action: ActionRefresh, Data: len(list)})
}

// --- Incremental upserts ---

// UpdateEquipment inserts or replaces one equipment record. Unknown IDs are
// accepted; the record is simply stored.
func (s *Store) UpdateEquipment(e Equipment) {
	s.mu.Lock()
	action := ActionUpdate
	if _, ok := s.equipment[e.ID]; !ok {
		action = ActionCreate
	}
	s.equipment[e.ID] = e
	s.lastUpdated[EntityEquipment] = time.Now()
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityEquipment, Action: action, Data: e})
}

// RemoveEquipment deletes an equipment record and its current status record,
// if any. Breakdown history referencing the equipment is kept.
func (s *Store) RemoveEquipment(id string) {
	s.mu.Lock()
	_, hadEquipment := s.equipment[id]
	delete(s.equipment, id)
	_, hadStatus := s.statuses[id]
	delete(s.statuses, id)
	now := time.Now()
	if hadEquipment {
		s.lastUpdated[EntityEquipment] = now
	}
	if hadStatus {
		s.lastUpdated[EntityStatus] = now
	}
	s.mu.Unlock()

	if hadEquipment {
		s.Events.Publish(ChangeEvent{Entity: EntityEquipment, Action: ActionDelete, Data: id})
	}
	if hadStatus {
		s.Events.Publish(ChangeEvent{Entity: EntityStatus, Action: ActionDelete, Data: id})
	}
}

// UpdateEquipmentStatus inserts or replaces the current status record for
// the status's equipment ID. Last write wins.
func (s *Store) UpdateEquipmentStatus(st EquipmentStatus) {
	s.mu.Lock()
	action := ActionUpdate
	if _, ok := s.statuses[st.EquipmentID]; !ok {
		action = ActionCreate
	}
	s.statuses[st.EquipmentID] = st
	s.lastUpdated[EntityStatus] = time.Now()
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityStatus, Action: action, Data: st})
}

// RemoveEquipmentStatus deletes the current status record for an equipment.
func (s *Store) RemoveEquipmentStatus(equipmentID string) {
	s.mu.Lock()
	_, had := s.statuses[equipmentID]
	delete(s.statuses, equipmentID)
	if had {
		s.lastUpdated[EntityStatus] = time.Now()
	}
	s.mu.Unlock()

	if had {
		s.Events.Publish(ChangeEvent{Entity: EntityStatus, Action: ActionDelete, Data: equipmentID})
	}
}

// AddBreakdownReport registers a new breakdown report and applies the
// cross-entity rule: if the affected equipment's current status is anything
// other than "breakdown" (or absent), a status transition to "breakdown" is
// synthesized. Both mutations happen under one critical section; the
// breakdown-create notification is emitted first, then the status-update
// notification.
func (s *Store) AddBreakdownReport(b BreakdownReport) {
	s.mu.Lock()
	s.breakdowns[b.ID] = b
	now := time.Now()
	s.lastUpdated[EntityBreakdowns] = now

	var synthesized *EquipmentStatus
	cur, hasStatus := s.statuses[b.EquipmentID]
	if !hasStatus || cur.Status != StatusBreakdown {
		st := EquipmentStatus{
			ID:              uuid.New().String(),
			EquipmentID:     b.EquipmentID,
			Status:          StatusBreakdown,
			StatusReason:    fmt.Sprintf("Breakdown reported: %s", b.Title),
			ChangedBy:       b.ReportedBy,
			StatusChangedAt: &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if hasStatus {
			st.CreatedAt = cur.CreatedAt
			st.LastMaintenanceAt = cur.LastMaintenanceAt
			st.NextMaintenanceAt = cur.NextMaintenanceAt
		}
		s.statuses[b.EquipmentID] = st
		s.lastUpdated[EntityStatus] = now
		synthesized = &st
	}
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityBreakdowns, Action: ActionCreate, Data: b})
	if synthesized != nil {
		s.Events.Publish(ChangeEvent{Entity: EntityStatus, Action: ActionUpdate, Data: *synthesized})
	}
}

// UpdateBreakdownReport inserts or replaces one breakdown record without
// the cross-entity side effect. Used for feed update events, where the
// status transition has already happened.
func (s *Store) UpdateBreakdownReport(b BreakdownReport) {
	s.mu.Lock()
	action := ActionUpdate
	if _, ok := s.breakdowns[b.ID]; !ok {
		action = ActionCreate
	}
	s.breakdowns[b.ID] = b
	s.lastUpdated[EntityBreakdowns] = time.Now()
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityBreakdowns, Action: action, Data: b})
}

// RemoveBreakdownReport deletes one breakdown record.
func (s *Store) RemoveBreakdownReport(id string) {
	s.mu.Lock()
	_, had := s.breakdowns[id]
	delete(s.breakdowns, id)
	if had {
		s.lastUpdated[EntityBreakdowns] = time.Now()
	}
	s.mu.Unlock()

	if had {
		s.Events.Publish(ChangeEvent{Entity: EntityBreakdowns, Action: ActionDelete, Data: id})
	}
}

// --- Read accessors ---

// Equipments returns a copy of the equipment map.
func (s *Store) Equipments() map[string]Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]Equipment, len(s.equipment))
	for k, v := range s.equipment {
		m[k] = v
	}
	return m
}

// EquipmentStatuses returns a copy of the status map, keyed by equipment ID.
func (s *Store) EquipmentStatuses() map[string]EquipmentStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]EquipmentStatus, len(s.statuses))
	for k, v := range s.statuses {
		m[k] = v
	}
	return m
}

// BreakdownReports returns a copy of the breakdown map.
func (s *Store) BreakdownReports() map[string]BreakdownReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]BreakdownReport, len(s.breakdowns))
	for k, v := range s.breakdowns {
		m[k] = v
	}
	return m
}

// EquipmentWithStatus returns the derived equipment + status view, or nil
// if the equipment ID is unknown. A missing status record is not an error.
func (s *Store) EquipmentWithStatus(equipmentID string) *EquipmentWithStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.equipment[equipmentID]
	if !ok {
		return nil
	}
	out := &EquipmentWithStatus{Equipment: e}
	if st, ok := s.statuses[equipmentID]; ok {
		stCopy := st
		out.Status = &stCopy
	}
	return out
}

// BreakdownsByEquipment returns all breakdown reports for one equipment,
// in no guaranteed order.
func (s *Store) BreakdownsByEquipment(equipmentID string) []BreakdownReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BreakdownReport
	for _, b := range s.breakdowns {
		if b.EquipmentID == equipmentID {
			out = append(out, b)
		}
	}
	return out
}

// LastUpdated reports when an entity type was last mutated. Zero time means
// never; callers use this to detect staleness.
func (s *Store) LastUpdated(entity Entity) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated[entity]
}

// Reset clears all maps and timestamps. Test isolation only.
func (s *Store) Reset() {
	s.mu.Lock()
	s.equipment = make(map[string]Equipment)
	s.statuses = make(map[string]EquipmentStatus)
	s.breakdowns = make(map[string]BreakdownReport)
	s.lastUpdated = make(map[Entity]time.Time)
	s.mu.Unlock()

	s.Events.Publish(ChangeEvent{Entity: EntityAll, Action: ActionRefresh, Data: "reset"})
}
