package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// CaseHandler serves the admin case endpoints, including the contact,
// escalation and compliance sub-resources of a case
type CaseHandler struct {
	BaseHandler
	cases       *caseworkapp.CaseService
	contacts    *caseworkapp.ContactService
	escalations *caseworkapp.EscalationService
	compliance  *caseworkapp.ComplianceService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(
	cases *caseworkapp.CaseService,
	contacts *caseworkapp.ContactService,
	escalations *caseworkapp.EscalationService,
	compliance *caseworkapp.ComplianceService,
) *CaseHandler {
	return &CaseHandler{
		cases:       cases,
		contacts:    contacts,
		escalations: escalations,
		compliance:  compliance,
	}
}

// List handles GET /cases
func (h *CaseHandler) List(c *gin.Context) {
	var filter caseworkapp.ListCasesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	cases, total, err := h.cases.List(c.Request.Context(), middleware.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, cases, total, filter.Page, filter.PageSize)
}

// ListByPD handles GET /pds/:id/cases
func (h *CaseHandler) ListByPD(c *gin.Context) {
	pdID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var filter caseworkapp.ListCasesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	filter.PDID = pdID.String()
	cases, total, err := h.cases.List(c.Request.Context(), middleware.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, cases, total, filter.Page, filter.PageSize)
}

// Get handles GET /cases/:id
func (h *CaseHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	detail, err := h.cases.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// ChangeStatus handles PATCH /cases/:id/status
func (h *CaseHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.ChangeStatusRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.cases.ChangeStatus(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Assign handles POST /cases/:id/assign
func (h *CaseHandler) Assign(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.AssignRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.cases.Assign(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Unassign handles POST /cases/:id/unassign
func (h *CaseHandler) Unassign(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.UnassignRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.cases.Unassign(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RouteToPool handles POST /cases/:id/pool. The body is optional.
func (h *CaseHandler) RouteToPool(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.RouteToPoolRequest
	if c.Request.ContentLength != 0 && !h.Bind(c, &req) {
		return
	}
	resp, err := h.cases.RouteToPool(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetRouting handles PUT /cases/:id/routing
func (h *CaseHandler) SetRouting(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.RoutingRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.cases.SetRouting(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Export handles GET /cases/export
func (h *CaseHandler) Export(c *gin.Context) {
	var filter caseworkapp.ListCasesFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	actor := middleware.Actor(c)
	h.CSV(c, exportName("cases"), func(w io.Writer) (int, error) {
		return h.cases.Export(c.Request.Context(), actor, w, filter)
	})
}

// ListContacts handles GET /cases/:id/contacts
func (h *CaseHandler) ListContacts(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var page dto.ListRequest
	if !h.BindQuery(c, &page) {
		return
	}
	contacts, total, err := h.contacts.ListByCase(c.Request.Context(), middleware.Actor(c), id, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, contacts, total, page.Page, page.PageSize)
}

// LogContact handles POST /cases/:id/contacts for admins and PDs
func (h *CaseHandler) LogContact(c *gin.Context) {
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

// ListEscalations handles GET /cases/:id/escalations
func (h *CaseHandler) ListEscalations(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.escalations.ListByCase(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// RaiseEscalation handles POST /cases/:id/escalations
func (h *CaseHandler) RaiseEscalation(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.RaiseEscalationRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.escalations.Raise(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListFlags handles GET /cases/:id/compliance-flags
func (h *CaseHandler) ListFlags(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.compliance.ListByCase(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// RaiseFlag handles POST /cases/:id/compliance-flags
func (h *CaseHandler) RaiseFlag(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.RaiseFlagRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.compliance.Raise(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// exportName returns a dated attachment name such as cases-20260314.csv
func exportName(kind string) string {
	return fmt.Sprintf("%s-%s.csv", kind, time.Now().UTC().Format("20060102"))
}
