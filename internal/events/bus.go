package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() any
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() any {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

// Bus is an in-process publish/subscribe hub keyed by event type.
type Bus struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
	inFlight sync.WaitGroup
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(b.handlers[eventType]))
}

func (b *Bus) handlersFor(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[eventType]
}

// Publish runs every handler in its own goroutine. Handler errors are
// logged, never returned.
func (b *Bus) Publish(ctx context.Context, event Event) {
	handlers := b.handlersFor(event.EventType())
	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return
	}

	b.logger.Debug("publishing event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	for _, handler := range handlers {
		b.inFlight.Add(1)
		go func(h Handler) {
			defer b.inFlight.Done()
			if err := h(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(handler)
	}
}

// PublishSync runs handlers in order and stops at the first failure.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	for _, handler := range b.handlersFor(event.EventType()) {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Wait blocks until handlers started by Publish have returned.
func (b *Bus) Wait() {
	b.inFlight.Wait()
}
