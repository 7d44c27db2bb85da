package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"mainttrack/feed"
	"mainttrack/state"
	"mainttrack/store"

	"go.uber.org/zap"
)

// fakeFeed records subscriptions and lets tests push events at handlers.
type fakeFeed struct {
	handlers     map[string]feed.Handler
	subscribed   []string
	unsubscribed []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{handlers: make(map[string]feed.Handler)}
}

func (f *fakeFeed) Connect() error { return nil }
func (f *fakeFeed) Close()         {}

func (f *fakeFeed) Subscribe(table string, h feed.Handler) error {
	f.handlers[table] = h
	f.subscribed = append(f.subscribed, table)
	return nil
}

func (f *fakeFeed) Unsubscribe(table string) error {
	delete(f.handlers, table)
	f.unsubscribed = append(f.unsubscribed, table)
	return nil
}

func (f *fakeFeed) emit(t *testing.T, table string, evt feed.Event) {
	t.Helper()
	h, ok := f.handlers[table]
	if !ok {
		t.Fatalf("no handler subscribed for table %q", table)
	}
	h(evt)
}

// fakeDB serves canned rows for the bulk-fetch interfaces.
type fakeDB struct {
	equipment  []*store.Equipment
	statuses   []*store.EquipmentStatus
	breakdowns []*store.BreakdownReport

	err            error
	breakdownCalls int
}

func (f *fakeDB) ListEquipment() ([]*store.Equipment, error) {
	return f.equipment, f.err
}

func (f *fakeDB) ListEquipmentStatuses() ([]*store.EquipmentStatus, error) {
	return f.statuses, f.err
}

func (f *fakeDB) ListBreakdownReports() ([]*store.BreakdownReport, error) {
	f.breakdownCalls++
	return f.breakdowns, f.err
}

func TestEquipmentSync_BulkReplace(t *testing.T) {
	db := &fakeDB{equipment: []*store.Equipment{
		{ID: "E1", Number: "CNC-001", Name: "Lathe", Category: "machining", CreatedAt: time.Now()},
		{ID: "E2", Number: "PRESS-002", Name: "Press", Category: "forming", CreatedAt: time.Now()},
	}}
	cache := state.New()
	s := NewEquipmentSyncer(db, newFakeFeed(), cache, zap.NewNop())

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got := cache.Equipments()
	if len(got) != 2 {
		t.Fatalf("cached equipment = %d, want 2", len(got))
	}
	if got["E1"].Number != "CNC-001" {
		t.Errorf("E1.Number = %q", got["E1"].Number)
	}
}

func TestEquipmentSync_FetchError(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	cache := state.New()
	s := NewEquipmentSyncer(db, newFakeFeed(), cache, zap.NewNop())

	if err := s.Sync(context.Background()); err == nil {
		t.Fatal("Sync should surface the fetch error")
	}
	if len(cache.Equipments()) != 0 {
		t.Error("cache should stay untouched on fetch failure")
	}
}

func TestEquipmentHandle_FeedEvents(t *testing.T) {
	ff := newFakeFeed()
	cache := state.New()
	s := NewEquipmentSyncer(&fakeDB{}, ff, cache, zap.NewNop())
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ff.emit(t, TableEquipment, feed.Event{
		Action: feed.ActionInsert,
		Table:  TableEquipment,
		Record: []byte(`{"id":"E1","number":"CNC-001","name":"Lathe","category":"machining","created_at":"2026-08-01 09:00:00"}`),
	})
	got := cache.Equipments()
	if got["E1"].Name != "Lathe" {
		t.Fatalf("after insert: %+v", got["E1"])
	}

	ff.emit(t, TableEquipment, feed.Event{
		Action: feed.ActionUpdate,
		Table:  TableEquipment,
		Record: []byte(`{"id":"E1","number":"CNC-001","name":"Lathe Mk2","category":"machining"}`),
	})
	if got := cache.Equipments()["E1"]; got.Name != "Lathe Mk2" {
		t.Errorf("after update: Name = %q", got.Name)
	}

	ff.emit(t, TableEquipment, feed.Event{
		Action:    feed.ActionDelete,
		Table:     TableEquipment,
		OldRecord: []byte(`{"id":"E1"}`),
	})
	if _, ok := cache.Equipments()["E1"]; ok {
		t.Error("equipment should be removed on delete event")
	}
}

func TestStatusHandle_UpsertAndDelete(t *testing.T) {
	ff := newFakeFeed()
	cache := state.New()
	s := NewStatusSyncer(&fakeDB{}, ff, cache, zap.NewNop())
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ff.emit(t, TableStatus, feed.Event{
		Action: feed.ActionInsert,
		Record: []byte(`{"id":"st-1","equipment_id":"E1","status":"running","status_changed_at":"2026-08-01T09:00:00Z"}`),
	})
	got := cache.EquipmentStatuses()["E1"]
	if got.Status != state.StatusRunning {
		t.Fatalf("status = %q", got.Status)
	}
	if got.StatusChangedAt == nil {
		t.Error("StatusChangedAt should be parsed")
	}

	ff.emit(t, TableStatus, feed.Event{
		Action:    feed.ActionDelete,
		OldRecord: []byte(`{"id":"st-1","equipment_id":"E1"}`),
	})
	if _, ok := cache.EquipmentStatuses()["E1"]; ok {
		t.Error("status should be removed on delete event")
	}
}

func TestBreakdownHandle_InsertTriggersResync(t *testing.T) {
	db := &fakeDB{breakdowns: []*store.BreakdownReport{
		{ID: "B1", EquipmentID: "E1", Title: "Spindle failure", EquipmentCategory: "machining", EquipmentNumber: "CNC-001"},
	}}
	ff := newFakeFeed()
	cache := state.New()
	s := NewBreakdownSyncer(db, ff, cache, zap.NewNop())
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ff.emit(t, TableBreakdowns, feed.Event{
		Action: feed.ActionInsert,
		Record: []byte(`{"id":"B1","equipment_id":"E1","title":"Spindle failure"}`),
	})

	if db.breakdownCalls != 1 {
		t.Errorf("bulk fetches = %d, want 1 (insert re-syncs the table)", db.breakdownCalls)
	}
	got := cache.BreakdownReports()["B1"]
	if got.EquipmentCategory != "machining" || got.EquipmentNumber != "CNC-001" {
		t.Errorf("denormalized fields not carried: %+v", got)
	}
}

func TestBreakdownHandle_UpdateKeepsDenormalizedFields(t *testing.T) {
	ff := newFakeFeed()
	cache := state.New()
	cache.SetBreakdownReports([]state.BreakdownReport{
		{ID: "B1", EquipmentID: "E1", Title: "Spindle failure", Status: state.BreakdownReported,
			EquipmentCategory: "machining", EquipmentNumber: "CNC-001"},
	})
	s := NewBreakdownSyncer(&fakeDB{}, ff, cache, zap.NewNop())
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ff.emit(t, TableBreakdowns, feed.Event{
		Action: feed.ActionUpdate,
		Record: []byte(`{"id":"B1","equipment_id":"E1","title":"Spindle failure","status":"in_progress"}`),
	})

	got := cache.BreakdownReports()["B1"]
	if got.Status != state.BreakdownInProgress {
		t.Errorf("Status = %q", got.Status)
	}
	if got.EquipmentCategory != "machining" || got.EquipmentNumber != "CNC-001" {
		t.Errorf("denormalized fields lost on update: %+v", got)
	}
}

func TestBreakdownHandle_UpdateHasNoStatusSideEffect(t *testing.T) {
	ff := newFakeFeed()
	cache := state.New()
	cache.SetEquipments([]state.Equipment{{ID: "E1", Number: "CNC-001"}})
	cache.SetEquipmentStatuses([]state.EquipmentStatus{{ID: "st-1", EquipmentID: "E1", Status: state.StatusRunning}})
	s := NewBreakdownSyncer(&fakeDB{}, ff, cache, zap.NewNop())
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ff.emit(t, TableBreakdowns, feed.Event{
		Action: feed.ActionUpdate,
		Record: []byte(`{"id":"B9","equipment_id":"E1","title":"Late-arriving update"}`),
	})

	// A feed update is a plain replace; the status transition already
	// happened at the system of record.
	if got := cache.EquipmentStatuses()["E1"]; got.Status != state.StatusRunning {
		t.Errorf("status = %q, want unchanged %q", got.Status, state.StatusRunning)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ff := newFakeFeed()
	cache := state.New()
	s := NewEquipmentSyncer(&fakeDB{}, ff, cache, zap.NewNop())
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if _, ok := ff.handlers[TableEquipment]; ok {
		t.Error("handler should be removed after Unsubscribe")
	}
}
