package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mainttrack/state"
)

// Envelope wraps one change notification for the wire.
type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	Payload   any       `json:"payload,omitempty"`
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope unmarshals a wire message. Consumer-side helper; the
// service itself only publishes.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// publisher is the slice of Client the bridge needs.
type publisher interface {
	Publish(topic string, payload []byte) error
}

// Bridge forwards every cache change notification to the state topic.
// The notifier callback only enqueues; a publisher goroutine drains the
// queue, so a slow or stalled broker never blocks a cache mutation. When
// the queue is full the event is dropped and logged.
type Bridge struct {
	pub      publisher
	events   *state.Notifier
	topic    string
	log      *zap.Logger
	subID    state.SubscriberID
	queue    chan []byte
	stopChan chan struct{}
}

func NewBridge(pub publisher, events *state.Notifier, topic string, log *zap.Logger) *Bridge {
	return &Bridge{
		pub:      pub,
		events:   events,
		topic:    topic,
		log:      log,
		queue:    make(chan []byte, 256),
		stopChan: make(chan struct{}),
	}
}

// Start subscribes the bridge to all change notifications and launches
// the publisher goroutine.
func (b *Bridge) Start() {
	b.subID = b.events.Subscribe(b.enqueue)
	go b.run()
	b.log.Info("kafka bridge started", zap.String("topic", b.topic))
}

// Stop unsubscribes the bridge and stops the publisher goroutine.
// Queued events not yet published are dropped.
func (b *Bridge) Stop() {
	b.events.Unsubscribe(b.subID)
	select {
	case <-b.stopChan:
	default:
		close(b.stopChan)
	}
}

func (b *Bridge) enqueue(evt state.ChangeEvent) {
	env := Envelope{
		MsgType:   "state_change",
		MsgID:     uuid.New().String(),
		Source:    "mainttrack",
		Timestamp: evt.Timestamp,
		Entity:    string(evt.Entity),
		Action:    string(evt.Action),
		Payload:   evt.Data,
	}
	data, err := env.Encode()
	if err != nil {
		b.log.Error("encode state envelope", zap.Error(err))
		return
	}
	select {
	case b.queue <- data:
	default:
		b.log.Warn("state topic queue full, dropping event", zap.String("entity", env.Entity))
	}
}

func (b *Bridge) run() {
	for {
		select {
		case <-b.stopChan:
			return
		case data := <-b.queue:
			if err := b.pub.Publish(b.topic, data); err != nil {
				b.log.Warn("publish state change", zap.String("topic", b.topic), zap.Error(err))
			}
		}
	}
}
