package handler

import (
	"github.com/gin-gonic/gin"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	earningsapp "github.com/pathway/backend/internal/application/earnings"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// PortalHandler serves the PD portal. Every call is scoped to the signed-in
// PD by the services.
type PortalHandler struct {
	BaseHandler
	cases    *caseworkapp.CaseService
	contacts *caseworkapp.ContactService
	earnings *earningsapp.Service
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(cases *caseworkapp.CaseService, contacts *caseworkapp.ContactService, earnings *earningsapp.Service) *PortalHandler {
	return &PortalHandler{cases: cases, contacts: contacts, earnings: earnings}
}

// ListCases handles GET /cases
func (h *PortalHandler) ListCases(c *gin.Context) {
	var filter caseworkapp.ListCasesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	cases, total, err := h.cases.ListForPD(c.Request.Context(), middleware.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, cases, total, filter.Page, filter.PageSize)
}

// GetCase handles GET /cases/:id
func (h *PortalHandler) GetCase(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	detail, err := h.cases.GetForPD(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// ChangeStatus handles PATCH /cases/:id/status
func (h *PortalHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.ChangeStatusRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.cases.ChangeStatusByPD(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LogContact handles POST /cases/:id/contacts
func (h *PortalHandler) LogContact(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.LogContactRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.contacts.Log(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListPool handles GET /pool
func (h *PortalHandler) ListPool(c *gin.Context) {
	var page dto.ListRequest
	if !h.BindQuery(c, &page) {
		return
	}
	cases, total, err := h.cases.ListPool(c.Request.Context(), middleware.Actor(c), page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, cases, total, page.Page, page.PageSize)
}

// Claim handles POST /pool/:caseId/claim
func (h *PortalHandler) Claim(c *gin.Context) {
	id, ok := h.ParamID(c, "caseId")
	if !ok {
		return
	}
	resp, err := h.cases.Claim(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListEarnings handles GET /earnings
func (h *PortalHandler) ListEarnings(c *gin.Context) {
	var filter earningsapp.ListEntriesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	entries, total, err := h.earnings.ListForPD(c.Request.Context(), middleware.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// EarningsSummary handles GET /earnings/summary
func (h *PortalHandler) EarningsSummary(c *gin.Context) {
	summary, err := h.earnings.SummaryForPD(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
