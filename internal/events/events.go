package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roombook/internal/metrics"
)

// Type names a broadcast event.
type Type string

const (
	BookingCreated   Type = "booking:created"
	BookingUpdated   Type = "booking:updated"
	BookingDeleted   Type = "booking:deleted"
	Notification     Type = "notification"
	RoomCreated      Type = "room:created"
	RoomUpdated      Type = "room:updated"
	RoomDeleted      Type = "room:deleted"
	RecurringCreated Type = "recurring:created"
	EquipmentCreated Type = "equipment:created"
	EquipmentUpdated Type = "equipment:updated"
	EquipmentDeleted Type = "equipment:deleted"
	UserCreated      Type = "user:created"
	UserUpdated      Type = "user:updated"
	UserDeleted      Type = "user:deleted"

	// Stream-only events, never published on the bus.
	Connected Type = "connected"
	Heartbeat Type = "heartbeat"
)

// Subject returns the entity name an event type is about, e.g. "booking"
// for booking:created.
func (t Type) Subject() string {
	if i := strings.IndexByte(string(t), ':'); i >= 0 {
		return string(t)[:i]
	}
	return string(t)
}

// Event represents a lightweight domain event. Payload is one of the
// models types, or a map whose keys are merged into the wire form, and is
// shared read-only between listeners.
type Event struct {
	Type      Type
	Payload   any
	CreatedAt time.Time
}

// New stamps an event with the current time.
func New(t Type, payload any) Event {
	return Event{Type: t, Payload: payload, CreatedAt: time.Now()}
}

// MarshalJSON renders the wire form {"type", "<subject>": payload, "ts"}
// with ts in epoch milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type": e.Type,
		"ts":   e.CreatedAt.UnixMilli(),
	}
	switch p := e.Payload.(type) {
	case nil:
	case map[string]any:
		for k, v := range p {
			out[k] = v
		}
	default:
		out[e.Type.Subject()] = p
	}
	return json.Marshal(out)
}

// Listener reacts to an event. A returned error is logged and counted but
// never reaches the publisher.
type Listener func(event Event) error

type subscription struct {
	id       uint64
	listener Listener
}

// EventBus provides in-process pub/sub. Listeners run synchronously on
// the publisher's goroutine, in registration order.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{logger: logger.With().Str("component", "events").Logger()}
}

// Subscribe registers a listener for every event and returns a function
// that removes it. Calling the returned function more than once is a no-op.
func (b *EventBus) Subscribe(listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: listener})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish notifies the listeners registered at the moment of the call.
// Listeners subscribing or unsubscribing during delivery do not affect it.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	metrics.IncEventBroadcast(string(event.Type))

	for _, s := range subs {
		if err := b.deliver(s.listener, event); err != nil {
			metrics.IncListenerFailure(string(event.Type))
			b.logger.Warn().Err(err).Str("event", string(event.Type)).Uint64("listener", s.id).Msg("listener failed")
		}
	}
}

// Len returns the number of registered listeners.
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *EventBus) deliver(listener Listener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return listener(event)
}
