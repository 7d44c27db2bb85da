// Package feed subscribes to the change feed published by the system of
// record. Every insert, update, and delete on a tracked table arrives as
// one JSON event on a per-table topic or channel.
package feed

import "encoding/json"

// Event is one change notification from the system of record.
type Event struct {
	Action    string          `json:"action"` // "insert", "update", "delete"
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Handler receives decoded change events for one table.
type Handler func(Event)

// Feed is the change-feed connection. One handler per table; subscribing
// a table twice replaces the previous handler.
type Feed interface {
	Connect() error
	Subscribe(table string, h Handler) error
	Unsubscribe(table string) error
	Close()
}
