package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// ChannelHandler handles clinical channel and provider administration
type ChannelHandler struct {
	BaseHandler
	channels *partnerapp.ChannelService
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(channels *partnerapp.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

// ListChannels handles GET /channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	var filter partnerapp.ListChannelsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.channels.ListChannels(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// CreateChannel handles POST /channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req partnerapp.CreateChannelRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.channels.CreateChannel(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateChannel handles PUT /channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdateChannelRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.channels.UpdateChannel(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ActivateChannel handles POST /channels/:id/activate
func (h *ChannelHandler) ActivateChannel(c *gin.Context) { h.setChannelActive(c, true) }

// DeactivateChannel handles POST /channels/:id/deactivate
func (h *ChannelHandler) DeactivateChannel(c *gin.Context) { h.setChannelActive(c, false) }

func (h *ChannelHandler) setChannelActive(c *gin.Context, active bool) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	resp, err := h.channels.SetChannelActive(c.Request.Context(), middleware.Actor(c), id, active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListProviders handles GET /providers
func (h *ChannelHandler) ListProviders(c *gin.Context) {
	var filter partnerapp.ListProvidersFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.channels.ListProviders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// CreateProvider handles POST /providers
func (h *ChannelHandler) CreateProvider(c *gin.Context) {
	var req partnerapp.CreateProviderRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.channels.CreateProvider(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateProvider handles PUT /providers/:id
func (h *ChannelHandler) UpdateProvider(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdateProviderRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.channels.UpdateProvider(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ActivateProvider handles POST /providers/:id/activate
func (h *ChannelHandler) ActivateProvider(c *gin.Context) { h.setProviderActive(c, true) }

// DeactivateProvider handles POST /providers/:id/deactivate
func (h *ChannelHandler) DeactivateProvider(c *gin.Context) { h.setProviderActive(c, false) }

func (h *ChannelHandler) setProviderActive(c *gin.Context, active bool) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	resp, err := h.channels.SetProviderActive(c.Request.Context(), middleware.Actor(c), id, active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
