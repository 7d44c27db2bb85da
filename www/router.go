// Package www is the JSON read/ingest surface over the state cache, plus
// an SSE stream of change notifications.
package www

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mainttrack/state"
	"mainttrack/store"
)

// recordWriter is the slice of store.DB the inbound mutation path needs.
type recordWriter interface {
	CreateBreakdownReport(*store.BreakdownReport) error
	UpsertEquipmentStatus(*store.EquipmentStatus) error
}

// feedStatus reports whether the change-feed connection is up.
type feedStatus interface {
	IsConnected() bool
}

// syncControl is the slice of the coordinator the API needs.
type syncControl interface {
	Active() bool
	ForceSyncAll(ctx context.Context)
}

type Handlers struct {
	cache    *state.Store
	db       recordWriter
	feed     feedStatus
	coord    syncControl
	eventHub *EventHub
	log      *zap.Logger
}

func NewHandlers(cache *state.Store, db recordWriter, feed feedStatus, coord syncControl, log *zap.Logger) *Handlers {
	return &Handlers{cache: cache, db: db, feed: feed, coord: coord, log: log}
}

// NewRouter builds the HTTP handler. The returned stop function shuts the
// SSE hub down.
func NewRouter(h *Handlers) (http.Handler, func()) {
	hub := NewEventHub(h.log)
	hub.Start()
	hub.ListenTo(h.cache.Events)
	h.eventHub = hub

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/events", hub.SSEHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/equipment", h.apiListEquipment)
		r.Get("/equipment/status", h.apiEquipmentWithStatus)
		r.Get("/equipment/{id}/breakdowns", h.apiEquipmentBreakdowns)
		r.Get("/breakdowns", h.apiListBreakdowns)
		r.Get("/health", h.apiHealthCheck)
		r.Post("/breakdowns", h.apiCreateBreakdown)
		r.Post("/equipment/status", h.apiSetEquipmentStatus)
		r.Post("/sync", h.apiForceSync)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}
