package event

import (
	"context"
	"time"

	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultHandlerDedupTTL is how long a handled event ID is remembered
const DefaultHandlerDedupTTL = 7 * 24 * time.Hour

// IdempotentHandler wraps an EventHandler so each event ID is handled at
// most once per TTL even when the outbox redelivers it. A failed attempt
// releases its reservation so the retry runs the handler again.
type IdempotentHandler struct {
	name    string
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler. name scopes the keys so two handlers
// of the same event do not shadow each other.
func NewIdempotentHandler(name string, handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		name:    name,
		handler: handler,
		store:   store,
		ttl:     DefaultHandlerDedupTTL,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := "event:" + h.name + ":" + event.EventID().String()

	isNew, err := h.store.Reserve(ctx, key, h.ttl)
	if err != nil {
		// Wrapped handlers are idempotent on their own data as well.
		h.logger.Warn("Idempotency check failed, handling anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return h.handler.Handle(ctx, event)
	}
	if !isNew {
		h.logger.Debug("Skipping duplicate event",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		if releaseErr := h.store.Release(ctx, key); releaseErr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
		}
		return err
	}
	if err := h.store.Complete(ctx, key, []byte(event.EventType()), h.ttl); err != nil {
		h.logger.Warn("Failed to complete idempotency key", zap.String("key", key), zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
