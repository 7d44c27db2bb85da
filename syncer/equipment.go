package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"mainttrack/feed"
	"mainttrack/state"
	"mainttrack/store"

	"go.uber.org/zap"
)

type equipmentLister interface {
	ListEquipment() ([]*store.Equipment, error)
}

// EquipmentSyncer keeps the equipment map in sync.
type EquipmentSyncer struct {
	db    equipmentLister
	feed  feed.Feed
	cache *state.Store
	log   *zap.Logger
}

func NewEquipmentSyncer(db equipmentLister, f feed.Feed, cache *state.Store, log *zap.Logger) *EquipmentSyncer {
	return &EquipmentSyncer{db: db, feed: f, cache: cache, log: log}
}

func (s *EquipmentSyncer) Entity() state.Entity { return state.EntityEquipment }
func (s *EquipmentSyncer) Table() string        { return TableEquipment }

// Sync bulk-fetches all equipment rows and replaces the cached map.
func (s *EquipmentSyncer) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := s.db.ListEquipment()
	if err != nil {
		return fmt.Errorf("sync equipment: %w", err)
	}
	list := make([]state.Equipment, 0, len(rows))
	for _, r := range rows {
		list = append(list, equipmentFromStore(r))
	}
	s.cache.SetEquipments(list)
	return nil
}

func (s *EquipmentSyncer) Subscribe() error {
	return s.feed.Subscribe(TableEquipment, s.handle)
}

func (s *EquipmentSyncer) Unsubscribe() error {
	return s.feed.Unsubscribe(TableEquipment)
}

func (s *EquipmentSyncer) handle(evt feed.Event) {
	switch evt.Action {
	case feed.ActionInsert, feed.ActionUpdate:
		var rec equipmentRecord
		if err := json.Unmarshal(evt.Record, &rec); err != nil {
			s.log.Warn("equipment event decode failed", zap.Error(err))
			return
		}
		if rec.ID == "" {
			s.log.Warn("equipment event missing id")
			return
		}
		s.cache.UpdateEquipment(rec.toState())
	case feed.ActionDelete:
		id := deletedID(evt)
		if id == "" {
			s.log.Warn("equipment delete event missing id")
			return
		}
		s.cache.RemoveEquipment(id)
	default:
		s.log.Warn("equipment event with unknown action", zap.String("action", evt.Action))
	}
}

// deletedID pulls the row ID out of a delete event, preferring the old
// record since some feeds send an empty new record on delete.
func deletedID(evt feed.Event) string {
	var rec deleteRecord
	if len(evt.OldRecord) > 0 {
		if err := json.Unmarshal(evt.OldRecord, &rec); err == nil && rec.ID != "" {
			return rec.ID
		}
	}
	if len(evt.Record) > 0 {
		if err := json.Unmarshal(evt.Record, &rec); err == nil {
			return rec.ID
		}
	}
	return ""
}
