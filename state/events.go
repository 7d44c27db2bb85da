package state

import "time"

// Entity identifies which cached entity type a change event refers to.
type Entity string

const (
	EntityEquipment  Entity = "equipment"
	EntityStatus     Entity = "equipmentStatus"
	EntityBreakdowns Entity = "breakdownReports"

	// EntityAll is used for store-wide events: a reset, or the completion
	// of a coordinator-driven full resync.
	EntityAll Entity = "all"
)

// Action is the kind of mutation a change event describes.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRefresh Action = "refresh"
)

// ChangeEvent is the payload delivered to Notifier subscribers.
type ChangeEvent struct {
	Entity    Entity    `json:"type"`
	Action    Action    `json:"action"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
