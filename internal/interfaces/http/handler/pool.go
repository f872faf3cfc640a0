package handler

import (
	"github.com/gin-gonic/gin"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// PoolHandler handles city pool administration
type PoolHandler struct {
	BaseHandler
	pools *caseworkapp.PoolService
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(pools *caseworkapp.PoolService) *PoolHandler {
	return &PoolHandler{pools: pools}
}

// List handles GET /pools
func (h *PoolHandler) List(c *gin.Context) {
	var filter caseworkapp.ListPoolsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	pools, total, err := h.pools.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, pools, total, filter.Page, filter.PageSize)
}

// Get handles GET /pools/:id
func (h *PoolHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pool, err := h.pools.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pool)
}

// Create handles POST /pools
func (h *PoolHandler) Create(c *gin.Context) {
	var req caseworkapp.CreatePoolRequest
	if !h.Bind(c, &req) {
		return
	}
	pool, err := h.pools.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pool)
}

// Update handles PUT /pools/:id
func (h *PoolHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req caseworkapp.UpdatePoolRequest
	if !h.Bind(c, &req) {
		return
	}
	pool, err := h.pools.Update(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pool)
}

// Activate handles POST /pools/:id/activate
func (h *PoolHandler) Activate(c *gin.Context) {
	h.toggle(c, true)
}

// Deactivate handles POST /pools/:id/deactivate
func (h *PoolHandler) Deactivate(c *gin.Context) {
	h.toggle(c, false)
}

func (h *PoolHandler) toggle(c *gin.Context, active bool) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	toggle := h.pools.Deactivate
	if active {
		toggle = h.pools.Activate
	}
	pool, err := toggle(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pool)
}
