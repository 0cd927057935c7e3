// eventsink.go provides an in-memory implementation of EventSink.
//
// It is the default sink when no SNS topic is configured and the sink used by
// tests to assert on published events. All operations are thread-safe.
package memory

import (
	"context"
	"sync"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.EventSink = (*EventSink)(nil)

// EventSink stores published events for later inspection.
type EventSink struct {
	mu     sync.RWMutex
	events []outbound.Event
	closed bool
}

// NewEventSink creates a new in-memory event sink.
func NewEventSink() *EventSink {
	return &EventSink{events: make([]outbound.Event, 0)}
}

// Publish stores the event. Events published after Close are dropped.
func (s *EventSink) Publish(_ context.Context, event outbound.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.events = append(s.events, event)
	return nil
}

// Close marks the sink as closed.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// GetEvents returns all published events.
func (s *EventSink) GetEvents() []outbound.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.Event, len(s.events))
	copy(result, s.events)
	return result
}

// GetEventsByType returns events filtered by type.
func (s *EventSink) GetEventsByType(eventType outbound.EventType) []outbound.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.Event, 0)
	for _, e := range s.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}
