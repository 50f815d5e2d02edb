// Package events provides the in-process event feed between the runtime
// event stream and its subscribers.
package events

import "time"

// EventType keys the event category a handler subscribes to.
type EventType string

// EventContainerStart fires when a runtime container starts.
const EventContainerStart EventType = "container.start"

// Event is one delivered occurrence. Attributes carry the actor's metadata
// as reported by the feed; handlers must not trust them as complete and
// should re-fetch authoritative state by ActorID before acting.
type Event struct {
	ID         string
	Type       EventType
	ActorID    string
	Attributes map[string]string
	Timestamp  time.Time
}

// Handler consumes events from the bus.
type Handler interface {
	Handle(event Event) error
	CanHandle(eventType EventType) bool
}
