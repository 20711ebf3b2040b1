package events

import (
	"log/slog"
	"sync"
	"time"
)

// Category distinguishes retention-flavored events from generic document
// lifecycle events.
type Category string

const (
	// CategoryRetention marks events that carry a retention event input
	// and should be routed to the retention dispatcher.
	CategoryRetention Category = "retention"

	// CategoryDocument marks generic document lifecycle events.
	CategoryDocument Category = "document"
)

// Event is one domain event.
type Event struct {
	// Name is the event name, e.g. "retention.contractEnd" or
	// "documentMoved".
	Name string

	// Category classifies the event; only CategoryRetention events are
	// evaluated against event-based rules.
	Category Category

	// Input is the retention event input, empty for document events.
	Input string

	// Principal is the name of the actor that caused the event.
	Principal string

	// DocumentID is set for document lifecycle events.
	DocumentID string

	// Time is when the event was emitted.
	Time time.Time
}

// Handler consumes events. Handlers run synchronously on the publishing
// goroutine and must not block.
type Handler func(Event)

// Bus is a synchronous in-process publish/subscribe bus.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{logger: slog.Default().With("component", "events.bus")}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers an event to every handler in subscription order.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	b.logger.Debug("publishing event",
		"event", e.Name,
		"category", e.Category,
	)
	for _, h := range handlers {
		h(e)
	}
}
