// Package syncer keeps the in-memory state cache aligned with the system
// of record: one synchronizer per entity type (bulk fetch + change-feed
// subscription) and a coordinator that runs them in dependency order.
package syncer

import (
	"context"

	"mainttrack/state"
)

// Feed table names, matching the system of record's table naming.
const (
	TableEquipment  = "equipment"
	TableStatus     = "equipment_status"
	TableBreakdowns = "breakdown_reports"
)

// Synchronizer keeps one entity type in sync. Sync performs a bulk fetch
// and atomically replaces the cached map; Subscribe opens the change-feed
// subscription for the entity's table.
type Synchronizer interface {
	Entity() state.Entity
	Table() string
	Sync(ctx context.Context) error
	Subscribe() error
	Unsubscribe() error
}
