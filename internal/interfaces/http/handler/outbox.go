package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/application/event"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// OutboxHandler exposes the transactional outbox for operators
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// Stats returns entry counts by status
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// DeadLetters pages through entries that exhausted their retries
func (h *OutboxHandler) DeadLetters(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	entries, total, err := h.outboxService.DeadLetters(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// RetryDead requeues one dead entry
func (h *OutboxHandler) RetryDead(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAllDead requeues every dead entry
func (h *OutboxHandler) RetryAllDead(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"requeued": count})
}
