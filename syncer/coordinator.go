package syncer

import (
	"context"
	"sync"

	"mainttrack/state"

	"go.uber.org/zap"
)

// Coordinator drives the registered synchronizers. Two states: stopped
// (initial) and active. Start runs every synchronizer's bulk sync
// sequentially in registration order, which matters: the breakdown
// synchronizer's cross-entity invariant needs equipment and status
// populated first. A failing synchronizer is logged and skipped; it never
// stops the others.
type Coordinator struct {
	log    *zap.Logger
	events *state.Notifier

	mu      sync.Mutex
	active  bool
	syncers []Synchronizer
}

func NewCoordinator(events *state.Notifier, log *zap.Logger, syncers ...Synchronizer) *Coordinator {
	return &Coordinator{log: log, events: events, syncers: syncers}
}

// Start transitions stopped -> active: ordered bulk sync, then subscribe
// every synchronizer to the change feed. Calling Start while active is a
// no-op; there is never a duplicate subscription.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return
	}
	c.syncAll(ctx)
	for _, s := range c.syncers {
		if err := s.Subscribe(); err != nil {
			c.log.Error("subscribe failed", zap.String("table", s.Table()), zap.Error(err))
		}
	}
	c.active = true
	c.log.Info("sync coordinator started", zap.Int("synchronizers", len(c.syncers)))
}

// Stop transitions active -> stopped by closing every subscription.
// Idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	for _, s := range c.syncers {
		if err := s.Unsubscribe(); err != nil {
			c.log.Error("unsubscribe failed", zap.String("table", s.Table()), zap.Error(err))
		}
	}
	c.active = false
	c.log.Info("sync coordinator stopped")
}

// ForceSyncAll re-runs the ordered bulk sync without touching
// subscriptions, then announces completion so consumers can tell a manual
// refresh from an incremental update.
func (c *Coordinator) ForceSyncAll(ctx context.Context) {
	c.mu.Lock()
	c.syncAll(ctx)
	c.mu.Unlock()

	c.events.Publish(state.ChangeEvent{
		Entity: state.EntityAll,
		Action: state.ActionRefresh,
		Data:   "force-sync-completed",
	})
}

// Register adds a synchronizer. When the coordinator is already active the
// new synchronizer is synced and subscribed immediately.
func (c *Coordinator) Register(s Synchronizer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncers = append(c.syncers, s)
	if !c.active {
		return
	}
	if err := s.Sync(context.Background()); err != nil {
		c.log.Error("sync failed", zap.String("table", s.Table()), zap.Error(err))
	}
	if err := s.Subscribe(); err != nil {
		c.log.Error("subscribe failed", zap.String("table", s.Table()), zap.Error(err))
	}
}

// Active reports whether the coordinator is in the active state.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// syncAll runs under c.mu.
func (c *Coordinator) syncAll(ctx context.Context) {
	for _, s := range c.syncers {
		if err := s.Sync(ctx); err != nil {
			c.log.Error("sync failed", zap.String("table", s.Table()), zap.Error(err))
		}
	}
}
