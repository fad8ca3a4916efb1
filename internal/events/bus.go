package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler receives published events. It runs on the publisher's goroutine and
// must not block.
type Handler func(event *Event)

// Bus is an in-process publish/subscribe hub
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[string]Handler
	log      zerolog.Logger
}

// NewBus creates an empty bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType]map[string]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers handler for eventType. The returned function removes the
// subscription and is safe to call more than once.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	id := uuid.NewString()

	b.mu.Lock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	b.handlers[eventType][id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[eventType], id)
			if len(b.handlers[eventType]) == 0 {
				delete(b.handlers, eventType)
			}
			b.mu.Unlock()
		})
	}
}

// SubscribeAll registers handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) func() {
	return b.SubscribeTypes(AllTypes, handler)
}

// SubscribeTypes registers handler for each of types and returns one function
// cancelling all of them
func (b *Bus) SubscribeTypes(types []EventType, handler Handler) func() {
	cancels := make([]func(), 0, len(types))
	for _, t := range types {
		cancels = append(cancels, b.Subscribe(t, handler))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// Emit publishes an event to the current subscribers of eventType
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[eventType]))
	for _, h := range b.handlers[eventType] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(h, event)
	}
}

func (b *Bus) dispatch(h Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	h(event)
}

// SubscriberCount returns the number of handlers registered for eventType
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
