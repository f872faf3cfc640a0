package event

import (
	"context"
	"fmt"

	"github.com/pathway/backend/internal/domain/shared"
)

// OutboxPublisher implements EventPublisher by writing events to the outbox.
// Called with a transactional context, the events commit or roll back
// together with the aggregate change that raised them.
type OutboxPublisher struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(repo shared.OutboxRepository, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		repo:       repo,
		serializer: serializer,
	}
}

// Publish serializes the events and stores them as pending outbox entries
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}
	return p.repo.Save(ctx, entries...)
}

var _ shared.EventPublisher = (*OutboxPublisher)(nil)
