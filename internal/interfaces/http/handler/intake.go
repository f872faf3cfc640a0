package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/application/intake"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader lets intake clients retry a submission safely
const IdempotencyKeyHeader = "Idempotency-Key"

// IntakeHandler serves the public patient intake form and case tracking
type IntakeHandler struct {
	BaseHandler
	intake *intake.Service
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(svc *intake.Service) *IntakeHandler {
	return &IntakeHandler{intake: svc}
}

// Submit handles POST /intake
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req intake.SubmitRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.intake.Submit(c.Request.Context(), middleware.Actor(c), c.GetHeader(IdempotencyKeyHeader), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// Track handles GET /intake/track/:code. The email must match the patient's.
func (h *IntakeHandler) Track(c *gin.Context) {
	var req intake.TrackRequest
	if !h.BindQuery(c, &req) {
		return
	}
	resp, err := h.intake.Track(c.Request.Context(), c.Param("code"), req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
