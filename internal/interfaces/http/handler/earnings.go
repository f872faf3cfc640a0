package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	earningsapp "github.com/pathway/backend/internal/application/earnings"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// EarningsHandler handles the PD earnings ledger for finance staff
type EarningsHandler struct {
	BaseHandler
	earnings *earningsapp.Service
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(earnings *earningsapp.Service) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

// List handles GET /earnings
func (h *EarningsHandler) List(c *gin.Context) {
	var filter earningsapp.ListEntriesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	entries, total, err := h.earnings.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// Summary handles GET /earnings/summary, optionally for one PD via pd_id
func (h *EarningsHandler) Summary(c *gin.Context) {
	var pdID *uuid.UUID
	if raw := c.Query("pd_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid pd_id")
			return
		}
		pdID = &id
	}
	summary, err := h.earnings.Summary(c.Request.Context(), pdID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Approve handles POST /earnings/:id/approve
func (h *EarningsHandler) Approve(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	entry, err := h.earnings.Approve(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Void handles POST /earnings/:id/void
func (h *EarningsHandler) Void(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req earningsapp.VoidRequest
	if !h.Bind(c, &req) {
		return
	}
	entry, err := h.earnings.Void(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Payout handles POST /earnings/payouts
func (h *EarningsHandler) Payout(c *gin.Context) {
	var req earningsapp.PayoutRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.earnings.Payout(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Adjust handles POST /earnings/adjustments
func (h *EarningsHandler) Adjust(c *gin.Context) {
	var req earningsapp.AdjustmentRequest
	if !h.Bind(c, &req) {
		return
	}
	entry, err := h.earnings.Adjust(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// Export handles GET /earnings/export
func (h *EarningsHandler) Export(c *gin.Context) {
	var filter earningsapp.ListEntriesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	actor := middleware.Actor(c)
	h.CSV(c, exportName("earnings"), func(w io.Writer) (int, error) {
		return h.earnings.Export(c.Request.Context(), actor, w, filter)
	})
}
