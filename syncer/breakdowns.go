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

type breakdownLister interface {
	ListBreakdownReports() ([]*store.BreakdownReport, error)
}

// BreakdownSyncer keeps the breakdown report map in sync. The bulk fetch
// carries the equipment category/number joined in; a raw insert event does
// not, so inserts trigger a full re-sync instead of an in-place translate.
type BreakdownSyncer struct {
	db    breakdownLister
	feed  feed.Feed
	cache *state.Store
	log   *zap.Logger
}

func NewBreakdownSyncer(db breakdownLister, f feed.Feed, cache *state.Store, log *zap.Logger) *BreakdownSyncer {
	return &BreakdownSyncer{db: db, feed: f, cache: cache, log: log}
}

func (s *BreakdownSyncer) Entity() state.Entity { return state.EntityBreakdowns }
func (s *BreakdownSyncer) Table() string        { return TableBreakdowns }

// Sync bulk-fetches all breakdown rows, denormalized, and replaces the
// cached map.
func (s *BreakdownSyncer) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := s.db.ListBreakdownReports()
	if err != nil {
		return fmt.Errorf("sync breakdown reports: %w", err)
	}
	list := make([]state.BreakdownReport, 0, len(rows))
	for _, r := range rows {
		list = append(list, breakdownFromStore(r))
	}
	s.cache.SetBreakdownReports(list)
	return nil
}

func (s *BreakdownSyncer) Subscribe() error {
	return s.feed.Subscribe(TableBreakdowns, s.handle)
}

func (s *BreakdownSyncer) Unsubscribe() error {
	return s.feed.Unsubscribe(TableBreakdowns)
}

func (s *BreakdownSyncer) handle(evt feed.Event) {
	switch evt.Action {
	case feed.ActionInsert:
		// Correctness over latency: the denormalized join cannot be rebuilt
		// from the raw payload, so re-fetch the whole table.
		if err := s.Sync(context.Background()); err != nil {
			s.log.Error("resync after breakdown insert failed", zap.Error(err))
		}
	case feed.ActionUpdate:
		var rec breakdownRecord
		if err := json.Unmarshal(evt.Record, &rec); err != nil {
			s.log.Warn("breakdown event decode failed", zap.Error(err))
			return
		}
		if rec.ID == "" {
			s.log.Warn("breakdown event missing id")
			return
		}
		b := rec.toState()
		// Keep the denormalized fields from the cached copy, or pull them
		// from the cached equipment when the row is new to us.
		if prev, ok := s.cache.BreakdownReports()[b.ID]; ok {
			b.EquipmentCategory = prev.EquipmentCategory
			b.EquipmentNumber = prev.EquipmentNumber
		} else if e, ok := s.cache.Equipments()[b.EquipmentID]; ok {
			b.EquipmentCategory = e.Category
			b.EquipmentNumber = e.Number
		}
		s.cache.UpdateBreakdownReport(b)
	case feed.ActionDelete:
		id := deletedID(evt)
		if id == "" {
			s.log.Warn("breakdown delete event missing id")
			return
		}
		s.cache.RemoveBreakdownReport(id)
	default:
		s.log.Warn("breakdown event with unknown action", zap.String("action", evt.Action))
	}
}
