package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
)

// EventSerializer converts domain events to and from their outbox payload
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewDomainEventSerializer creates a serializer that knows every event the
// domain raises.
func NewDomainEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(casework.EventTypeCaseSubmitted, &casework.CaseSubmittedEvent{})
	s.Register(casework.EventTypeCaseStatusChanged, &casework.CaseStatusChangedEvent{})
	s.Register(casework.EventTypeCaseAssigned, &casework.CaseAssignedEvent{})
	s.Register(casework.EventTypeCasePooled, &casework.CasePooledEvent{})
	s.Register(casework.EventTypeCaseCompleted, &casework.CaseCompletedEvent{})
	s.Register(partner.EventTypePDCreated, &partner.PDCreatedEvent{})
	s.Register(partner.EventTypePDStatusChanged, &partner.PDStatusChangedEvent{})
	s.Register(partner.EventTypeApplicationStarted, &partner.ApplicationStartedEvent{})
	s.Register(partner.EventTypeApplicationStatusChanged, &partner.ApplicationStatusChangedEvent{})
	s.Register(earnings.EventTypeEntryRecorded, &earnings.EntryRecordedEvent{})
	s.Register(earnings.EventTypeEntryStatusChanged, &earnings.EntryStatusChangedEvent{})
	return s
}

// Register maps eventType to the concrete type of eventInstance
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes a domain event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("unknown event type: %s", event.EventType())
	}
	return json.Marshal(event)
}

// Deserialize decodes a payload into the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s does not implement DomainEvent", eventType)
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
