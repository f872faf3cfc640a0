package handler

import (
	"github.com/gin-gonic/gin"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// WorklistHandler serves the cross-case escalation and compliance queues
type WorklistHandler struct {
	BaseHandler
	escalations *caseworkapp.EscalationService
	compliance  *caseworkapp.ComplianceService
}

// NewWorklistHandler creates a new worklist handler
func NewWorklistHandler(escalations *caseworkapp.EscalationService, compliance *caseworkapp.ComplianceService) *WorklistHandler {
	return &WorklistHandler{escalations: escalations, compliance: compliance}
}

// ListEscalations handles GET /escalations
func (h *WorklistHandler) ListEscalations(c *gin.Context) {
	var filter caseworkapp.ListEscalationsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.escalations.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// AcknowledgeEscalation handles POST /escalations/:id/acknowledge
func (h *WorklistHandler) AcknowledgeEscalation(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	resp, err := h.escalations.Acknowledge(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ResolveEscalation handles POST /escalations/:id/resolve
func (h *WorklistHandler) ResolveEscalation(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.ResolveEscalationRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.escalations.Resolve(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListFlags handles GET /compliance-flags
func (h *WorklistHandler) ListFlags(c *gin.Context) {
	var filter caseworkapp.ListFlagsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.compliance.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ClearFlag handles POST /compliance-flags/:id/clear
func (h *WorklistHandler) ClearFlag(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.ClearFlagRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.compliance.Clear(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
