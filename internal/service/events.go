package service

import (
	"sync"

	"voicescout/internal/adapter"
)

// EventType defines the type of event
type EventType string

// Discovery events reuse the names adapters publish with
const (
	EventDiscoveryStarted  EventType = adapter.EventDiscoveryStarted
	EventDiscoveryPhase    EventType = adapter.EventDiscoveryPhase
	EventScanProgress      EventType = adapter.EventScanProgress
	EventServerVerified    EventType = adapter.EventServerVerified
	EventDiscoveryComplete EventType = adapter.EventDiscoveryComplete
	EventServerForgotten   EventType = "server-forgotten"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber. The channel is not closed.
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// PublishDiscoveryEvent implements adapter.EventPublisher
func (eb *EventBus) PublishDiscoveryEvent(eventType string, payload interface{}) {
	eb.Publish(Event{Type: EventType(eventType), Payload: payload})
}
