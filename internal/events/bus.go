package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pluto0x0/dragonify/pkg/logger"
)

// Bus is a buffered in-memory event bus. Events are dispatched to handlers
// sequentially in arrival order; a handler error is logged and never
// terminates dispatch or the subscription.
type Bus struct {
	handlers   []Handler
	eventChan  chan Event
	done       chan struct{}
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	bufferSize int
}

// NewBus creates a bus with the given channel buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Bus{
		handlers:   make([]Handler, 0),
		eventChan:  make(chan Event, bufferSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		bufferSize: bufferSize,
	}
}

// Publish enqueues an event for dispatch. It never blocks: when the buffer
// is full the event is dropped with an error.
func (bus *Bus) Publish(event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case bus.eventChan <- event:
		logger.Debug("Event published", "event_id", event.ID, "event_type", string(event.Type), "actor", event.ActorID)
		return nil
	case <-bus.ctx.Done():
		return fmt.Errorf("event bus is stopped")
	default:
		return fmt.Errorf("event channel is full, dropping event %s", event.ID)
	}
}

// Subscribe registers a handler.
func (bus *Bus) Subscribe(handler Handler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers = append(bus.handlers, handler)
	logger.Debug("Event handler subscribed", "handler_type", fmt.Sprintf("%T", handler), "total_handlers", len(bus.handlers))
}

// Start begins dispatching events in the background.
func (bus *Bus) Start() {
	logger.Info("Starting event bus", "buffer_size", bus.bufferSize)
	go bus.processEvents()
}

// Stop shuts the bus down and waits briefly for dispatch to drain.
func (bus *Bus) Stop() error {
	logger.Info("Stopping event bus")
	bus.cancel()

	select {
	case <-bus.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for event bus to stop")
	}
}

func (bus *Bus) processEvents() {
	defer close(bus.done)

	for {
		select {
		case event := <-bus.eventChan:
			bus.handleEvent(event)
		case <-bus.ctx.Done():
			logger.Debug("Event bus processing stopped")
			return
		}
	}
}

func (bus *Bus) handleEvent(event Event) {
	bus.mu.RLock()
	handlers := make([]Handler, len(bus.handlers))
	copy(handlers, bus.handlers)
	bus.mu.RUnlock()

	for _, handler := range handlers {
		if !handler.CanHandle(event.Type) {
			continue
		}

		start := time.Now()
		if err := handler.Handle(event); err != nil {
			logger.Error("Error handling event",
				"error", err,
				"event_id", event.ID,
				"event_type", string(event.Type),
				"handler_type", fmt.Sprintf("%T", handler))
			continue
		}

		logger.Debug("Event handled",
			"event_id", event.ID,
			"event_type", string(event.Type),
			"handler_type", fmt.Sprintf("%T", handler),
			"duration", time.Since(start))
	}
}
