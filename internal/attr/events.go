package attr

import (
	"log/slog"
	"slices"
	"sync"

	"matter-go-light/internal/zcl"
)

// Event types
const (
	EventAttributeUpdate = "attribute_update"
)

// Event represents a tree event.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// AttributeUpdate is the payload of an EventAttributeUpdate event.
type AttributeUpdate struct {
	Path     Path      `json:"-"`
	Endpoint uint16    `json:"endpoint"`
	Cluster  uint16    `json:"cluster"`
	Attr     uint16    `json:"attribute"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Old      zcl.Value `json:"old"`
	New      zcl.Value `json:"new"`
}

// EventHandler is a callback for events.
type EventHandler func(Event)

type subscription struct {
	id        uint64
	eventType string // empty matches every type
	handler   EventHandler
}

// EventBus delivers tree events to subscribers synchronously, in
// subscription order.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *slog.Logger
}

// NewEventBus creates a new event bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// On registers a handler for one event type and returns its unsubscribe
// function.
func (eb *EventBus) On(eventType string, handler EventHandler) func() {
	return eb.subscribe(eventType, handler)
}

// OnAll registers a handler for every event type and returns its
// unsubscribe function.
func (eb *EventBus) OnAll(handler EventHandler) func() {
	return eb.subscribe("", handler)
}

func (eb *EventBus) subscribe(eventType string, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	id := eb.nextID
	eb.nextID++
	eb.subs = append(eb.subs, subscription{id: id, eventType: eventType, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			eb.mu.Lock()
			defer eb.mu.Unlock()
			eb.subs = slices.DeleteFunc(eb.subs, func(s subscription) bool { return s.id == id })
		})
	}
}

// Emit calls every matching handler. A panicking handler is logged and the
// remaining handlers still run.
func (eb *EventBus) Emit(event Event) {
	eb.mu.RLock()
	var handlers []EventHandler
	for _, s := range eb.subs {
		if s.eventType == "" || s.eventType == event.Type {
			handlers = append(handlers, s.handler)
		}
	}
	eb.mu.RUnlock()

	for _, h := range handlers {
		eb.call(h, event)
	}
}

func (eb *EventBus) call(h EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error("event handler panic", "type", event.Type, "panic", r)
		}
	}()
	h(event)
}
