// Package handler holds the gin handlers for the admin API, the PD portal,
// the partner application wizard and public intake.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/logger"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.CodeBadRequest, message)
}

// HandleError converts a service error to a response. Domain errors keep
// their code. Anything else is logged and reported as a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Request failed",
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, http.StatusInternalServerError, dto.CodeInternal, "An unexpected error occurred")
}

// Bind binds the JSON body into obj and writes the error response when it is
// invalid. Returns false if the handler should stop.
func (h *BaseHandler) Bind(c *gin.Context, obj any) bool {
	return h.handleBind(c, c.ShouldBindJSON(obj), "Invalid request body")
}

// BindQuery binds query parameters into obj
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	return h.handleBind(c, c.ShouldBindQuery(obj), "Invalid query parameters")
}

func (h *BaseHandler) handleBind(c *gin.Context, err error, message string) bool {
	if err == nil {
		return true
	}
	if details := middleware.ValidationDetails(err); details != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			middleware.GetRequestID(c),
			details,
		))
		return false
	}
	h.BadRequest(c, message)
	return false
}

// ParamID parses a UUID path parameter
func (h *BaseHandler) ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// CSV streams a CSV attachment produced by write. The headers are only
// committed on the first byte, so a failure before any output is still
// reported as a JSON error.
func (h *BaseHandler) CSV(c *gin.Context, filename string, write func(io.Writer) (int, error)) {
	w := &attachmentWriter{c: c, filename: filename}
	rows, err := write(w)
	if err != nil {
		if !w.started {
			h.HandleError(c, err)
			return
		}
		logger.GetGinLogger(c).Error("Export aborted",
			zap.String("filename", filename),
			zap.Int("rows", rows),
			zap.Error(err),
		)
		c.Abort()
		return
	}
	if !w.started {
		w.start()
	}
	logger.GetGinLogger(c).Info("Export written", zap.String("filename", filename), zap.Int("rows", rows))
}

type attachmentWriter struct {
	c        *gin.Context
	filename string
	started  bool
}

func (w *attachmentWriter) start() {
	w.started = true
	w.c.Header("Content-Type", "text/csv; charset=utf-8")
	w.c.Header("Content-Disposition", `attachment; filename="`+w.filename+`"`)
	w.c.Status(http.StatusOK)
	w.c.Writer.WriteHeaderNow()
}

func (w *attachmentWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.start()
	}
	return w.c.Writer.Write(p)
}
