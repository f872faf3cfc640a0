package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// PDHandler handles PD administration
type PDHandler struct {
	BaseHandler
	pds *partnerapp.PDService
}

// NewPDHandler creates a new PD handler
func NewPDHandler(pds *partnerapp.PDService) *PDHandler {
	return &PDHandler{pds: pds}
}

// List handles GET /pds
func (h *PDHandler) List(c *gin.Context) {
	var filter partnerapp.ListPDsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.pds.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get handles GET /pds/:id
func (h *PDHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pd, err := h.pds.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pd)
}

// Update handles PUT /pds/:id
func (h *PDHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdatePDRequest
	if !h.Bind(c, &req) {
		return
	}
	pd, err := h.pds.Update(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pd)
}

// Suspend handles POST /pds/:id/suspend
func (h *PDHandler) Suspend(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.StatusReasonRequest
	if !h.Bind(c, &req) {
		return
	}
	pd, err := h.pds.Suspend(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pd)
}

// Reactivate handles POST /pds/:id/reactivate
func (h *PDHandler) Reactivate(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pd, err := h.pds.Reactivate(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pd)
}

// Offboard handles POST /pds/:id/offboard
func (h *PDHandler) Offboard(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.StatusReasonRequest
	if !h.Bind(c, &req) {
		return
	}
	pd, err := h.pds.Offboard(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pd)
}

// ResetPassword handles POST /pds/:id/reset-password
func (h *PDHandler) ResetPassword(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	resp, err := h.pds.ResetPassword(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
