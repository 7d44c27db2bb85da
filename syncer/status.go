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

type statusLister interface {
	ListEquipmentStatuses() ([]*store.EquipmentStatus, error)
}

// StatusSyncer keeps the equipment status map in sync.
type StatusSyncer struct {
	db    statusLister
	feed  feed.Feed
	cache *state.Store
	log   *zap.Logger
}

func NewStatusSyncer(db statusLister, f feed.Feed, cache *state.Store, log *zap.Logger) *StatusSyncer {
	return &StatusSyncer{db: db, feed: f, cache: cache, log: log}
}

func (s *StatusSyncer) Entity() state.Entity { return state.EntityStatus }
func (s *StatusSyncer) Table() string        { return TableStatus }

// Sync bulk-fetches all status rows and replaces the cached map.
func (s *StatusSyncer) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := s.db.ListEquipmentStatuses()
	if err != nil {
		return fmt.Errorf("sync equipment status: %w", err)
	}
	list := make([]state.EquipmentStatus, 0, len(rows))
	for _, r := range rows {
		list = append(list, statusFromStore(r))
	}
	s.cache.SetEquipmentStatuses(list)
	return nil
}

func (s *StatusSyncer) Subscribe() error {
	return s.feed.Subscribe(TableStatus, s.handle)
}

func (s *StatusSyncer) Unsubscribe() error {
	return s.feed.Unsubscribe(TableStatus)
}

func (s *StatusSyncer) handle(evt feed.Event) {
	switch evt.Action {
	case feed.ActionInsert, feed.ActionUpdate:
		var rec statusRecord
		if err := json.Unmarshal(evt.Record, &rec); err != nil {
			s.log.Warn("status event decode failed", zap.Error(err))
			return
		}
		if rec.EquipmentID == "" {
			s.log.Warn("status event missing equipment_id")
			return
		}
		s.cache.UpdateEquipmentStatus(rec.toState())
	case feed.ActionDelete:
		var rec deleteRecord
		if len(evt.OldRecord) > 0 {
			_ = json.Unmarshal(evt.OldRecord, &rec)
		}
		if rec.EquipmentID == "" && len(evt.Record) > 0 {
			_ = json.Unmarshal(evt.Record, &rec)
		}
		if rec.EquipmentID == "" {
			s.log.Warn("status delete event missing equipment_id")
			return
		}
		s.cache.RemoveEquipmentStatus(rec.EquipmentID)
	default:
		s.log.Warn("status event with unknown action", zap.String("action", evt.Action))
	}
}
