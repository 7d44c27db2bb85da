package syncer

import (
	"context"
	"errors"
	"testing"

	"mainttrack/state"

	"go.uber.org/zap"
)

// fakeSyncer records the order of calls across all fakes sharing a log.
type fakeSyncer struct {
	entity  state.Entity
	table   string
	syncErr error
	calls   *[]string
}

func (f *fakeSyncer) Entity() state.Entity { return f.entity }
func (f *fakeSyncer) Table() string        { return f.table }

func (f *fakeSyncer) Sync(context.Context) error {
	*f.calls = append(*f.calls, "sync:"+f.table)
	return f.syncErr
}

func (f *fakeSyncer) Subscribe() error {
	*f.calls = append(*f.calls, "subscribe:"+f.table)
	return nil
}

func (f *fakeSyncer) Unsubscribe() error {
	*f.calls = append(*f.calls, "unsubscribe:"+f.table)
	return nil
}

func testCoordinator() (*Coordinator, *state.Notifier, *[]string) {
	calls := &[]string{}
	events := state.NewNotifier()
	c := NewCoordinator(events, zap.NewNop(),
		&fakeSyncer{entity: state.EntityEquipment, table: TableEquipment, calls: calls},
		&fakeSyncer{entity: state.EntityStatus, table: TableStatus, calls: calls},
		&fakeSyncer{entity: state.EntityBreakdowns, table: TableBreakdowns, calls: calls},
	)
	return c, events, calls
}

func TestStart_SyncsInOrderThenSubscribes(t *testing.T) {
	c, _, calls := testCoordinator()
	c.Start(context.Background())

	want := []string{
		"sync:" + TableEquipment,
		"sync:" + TableStatus,
		"sync:" + TableBreakdowns,
		"subscribe:" + TableEquipment,
		"subscribe:" + TableStatus,
		"subscribe:" + TableBreakdowns,
	}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
	for i := range want {
		if (*calls)[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, (*calls)[i], want[i])
		}
	}
	if !c.Active() {
		t.Error("coordinator should be active after Start")
	}
}

func TestStart_Idempotent(t *testing.T) {
	c, _, calls := testCoordinator()
	c.Start(context.Background())
	n := len(*calls)
	c.Start(context.Background())
	if len(*calls) != n {
		t.Errorf("second Start made %d extra calls, want 0", len(*calls)-n)
	}
}

func TestStop_IdempotentAndUnsubscribes(t *testing.T) {
	c, _, calls := testCoordinator()

	// Stop before Start is a no-op.
	c.Stop()
	if len(*calls) != 0 {
		t.Fatalf("Stop while stopped made calls: %v", *calls)
	}

	c.Start(context.Background())
	*calls = nil
	c.Stop()

	want := []string{
		"unsubscribe:" + TableEquipment,
		"unsubscribe:" + TableStatus,
		"unsubscribe:" + TableBreakdowns,
	}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
	if c.Active() {
		t.Error("coordinator should be stopped")
	}

	n := len(*calls)
	c.Stop()
	if len(*calls) != n {
		t.Error("second Stop should be a no-op")
	}
}

func TestForceSyncAll_NoSubscriptionChurn(t *testing.T) {
	c, events, calls := testCoordinator()
	c.Start(context.Background())
	*calls = nil

	var got []state.ChangeEvent
	events.Subscribe(func(evt state.ChangeEvent) { got = append(got, evt) })

	c.ForceSyncAll(context.Background())

	want := []string{
		"sync:" + TableEquipment,
		"sync:" + TableStatus,
		"sync:" + TableBreakdowns,
	}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v (no subscribe/unsubscribe)", *calls, want)
	}
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	if got[0].Entity != state.EntityAll || got[0].Action != state.ActionRefresh {
		t.Errorf("event = %s/%s", got[0].Entity, got[0].Action)
	}
	if got[0].Data != "force-sync-completed" {
		t.Errorf("event data = %v", got[0].Data)
	}
}

func TestStart_SyncFailureIsolated(t *testing.T) {
	calls := &[]string{}
	c := NewCoordinator(state.NewNotifier(), zap.NewNop(),
		&fakeSyncer{entity: state.EntityEquipment, table: TableEquipment, calls: calls, syncErr: errors.New("boom")},
		&fakeSyncer{entity: state.EntityStatus, table: TableStatus, calls: calls},
	)
	c.Start(context.Background())

	// The failing synchronizer must not block the next one, and both
	// still get subscribed.
	want := []string{
		"sync:" + TableEquipment,
		"sync:" + TableStatus,
		"subscribe:" + TableEquipment,
		"subscribe:" + TableStatus,
	}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
	if !c.Active() {
		t.Error("coordinator should still go active")
	}
}

func TestRegister_WhileActiveSubscribesImmediately(t *testing.T) {
	c, _, calls := testCoordinator()
	c.Start(context.Background())
	*calls = nil

	extra := &fakeSyncer{entity: state.Entity("maintenancePlans"), table: "maintenance_plans", calls: calls}
	c.Register(extra)

	want := []string{"sync:maintenance_plans", "subscribe:maintenance_plans"}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
}

func TestRegister_WhileStoppedDefersSubscribe(t *testing.T) {
	calls := &[]string{}
	c := NewCoordinator(state.NewNotifier(), zap.NewNop())
	c.Register(&fakeSyncer{entity: state.EntityEquipment, table: TableEquipment, calls: calls})
	if len(*calls) != 0 {
		t.Fatalf("Register while stopped made calls: %v", *calls)
	}

	c.Start(context.Background())
	want := []string{"sync:" + TableEquipment, "subscribe:" + TableEquipment}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
}
