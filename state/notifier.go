package state

import (
	"sync"
	"time"
)

// SubscriberID uniquely identifies a Notifier subscriber.
type SubscriberID uint64

// SubscriberFunc is a callback invoked when a change event is published.
type SubscriberFunc func(ChangeEvent)

type subscriber struct {
	id     SubscriberID
	fn     SubscriberFunc
	filter map[Entity]struct{}
}

// Notifier provides synchronous, typed change dispatch.
// Subscribers are called in registration order on the publishing goroutine.
// There is no replay: a subscriber only sees events published after it
// registered.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []subscriber
	nextID      SubscriberID
}

// NewNotifier creates a new Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a callback for all entity types.
func (n *Notifier) Subscribe(fn SubscriberFunc) SubscriberID {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.subscribers = append(n.subscribers, subscriber{id: id, fn: fn})
	return id
}

// SubscribeEntities registers a callback only for the given entity types.
func (n *Notifier) SubscribeEntities(fn SubscriberFunc, entities ...Entity) SubscriberID {
	filter := make(map[Entity]struct{}, len(entities))
	for _, e := range entities {
		filter[e] = struct{}{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.subscribers = append(n.subscribers, subscriber{id: id, fn: fn, filter: filter})
	return id
}

// Unsubscribe removes a subscriber by ID.
func (n *Notifier) Unsubscribe(id SubscriberID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subscribers {
		if s.id == id {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			return
		}
	}
}

// Publish dispatches an event synchronously to all matching subscribers.
func (n *Notifier) Publish(evt ChangeEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	n.mu.RLock()
	subs := make([]subscriber, len(n.subscribers))
	copy(subs, n.subscribers)
	n.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil {
			if _, ok := s.filter[evt.Entity]; !ok {
				continue
			}
		}
		s.fn(evt)
	}
}
