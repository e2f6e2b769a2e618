package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler consumes a single event. Handlers must not block for long periods;
// publication happens on the pipeline goroutine.
type Handler func(Event)

// Dispatcher is an in-memory publish/subscribe hub for triage events.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *zap.Logger
}

// NewDispatcher builds an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers: map[EventType][]Handler{},
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event type.
func (d *Dispatcher) Subscribe(eventType EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Publish delivers the event to all subscribers of its type. A panicking
// handler is recovered and logged so one subscriber cannot break the pipeline.
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	handlers := d.handlers[event.Type]
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.invoke(handler, event)
	}
}

func (d *Dispatcher) invoke(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Any("panic", r))
		}
	}()
	handler(event)
}
