package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// ResumeTokenHeader carries the applicant's resume token on wizard calls
const ResumeTokenHeader = "X-Application-Token"

// ApplicationHandler serves the public PD application wizard and the admin
// review queue
type ApplicationHandler struct {
	BaseHandler
	applications *partnerapp.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications *partnerapp.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Start handles POST /application
func (h *ApplicationHandler) Start(c *gin.Context) {
	var req partnerapp.StartApplicationRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.applications.Start(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /application/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, token, ok := h.wizardParams(c)
	if !ok {
		return
	}
	resp, err := h.applications.Get(c.Request.Context(), id, token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SaveStep handles PUT /application/:id/steps/:step
func (h *ApplicationHandler) SaveStep(c *gin.Context) {
	id, token, ok := h.wizardParams(c)
	if !ok {
		return
	}
	var req partnerapp.SaveStepRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.applications.SaveStep(c.Request.Context(), middleware.Actor(c), id, token, c.Param("step"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RequestDocumentUpload handles POST /application/:id/documents
func (h *ApplicationHandler) RequestDocumentUpload(c *gin.Context) {
	id, token, ok := h.wizardParams(c)
	if !ok {
		return
	}
	var req partnerapp.DocumentUploadRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.applications.RequestDocumentUpload(c.Request.Context(), middleware.Actor(c), id, token, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Submit handles POST /application/:id/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	id, token, ok := h.wizardParams(c)
	if !ok {
		return
	}
	resp, err := h.applications.Submit(c.Request.Context(), middleware.Actor(c), id, token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Withdraw handles POST /application/:id/withdraw
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, token, ok := h.wizardParams(c)
	if !ok {
		return
	}
	resp, err := h.applications.Withdraw(c.Request.Context(), middleware.Actor(c), id, token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *ApplicationHandler) wizardParams(c *gin.Context) (uuid.UUID, string, bool) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return uuid.Nil, "", false
	}
	return id, c.GetHeader(ResumeTokenHeader), true
}

// List handles GET /applications
func (h *ApplicationHandler) List(c *gin.Context) {
	var filter partnerapp.ListApplicationsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Review handles GET /applications/:id
func (h *ApplicationHandler) Review(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	resp, err := h.applications.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve handles POST /applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.ApproveApplicationRequest
	if c.Request.ContentLength != 0 && !h.Bind(c, &req) {
		return
	}
	resp, err := h.applications.Approve(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject handles POST /applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.RejectApplicationRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.applications.Reject(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
