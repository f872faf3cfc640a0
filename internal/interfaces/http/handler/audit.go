package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/application/dashboard"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// AuditHandler serves the audit trail
type AuditHandler struct {
	BaseHandler
	audit *auditapp.Service
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *auditapp.Service) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List handles GET /audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	var filter auditapp.ListLogsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	logs, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, filter.Page, filter.PageSize)
}

// Export handles GET /audit-logs/export
func (h *AuditHandler) Export(c *gin.Context) {
	var filter auditapp.ListLogsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	actor := middleware.Actor(c)
	h.CSV(c, exportName("audit"), func(w io.Writer) (int, error) {
		return h.audit.Export(c.Request.Context(), actor, w, filter)
	})
}

// DashboardHandler serves the admin dashboard counters
type DashboardHandler struct {
	BaseHandler
	dashboard *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: svc}
}

// Summary handles GET /dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
