package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/application/identity"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// UserHandler handles admin user management
type UserHandler struct {
	BaseHandler
	users *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *identity.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /users
func (h *UserHandler) List(c *gin.Context) {
	var filter identity.ListUsersFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	users, total, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, filter.Page, filter.PageSize)
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req identity.CreateUserRequest
	if !h.Bind(c, &req) {
		return
	}
	resp, err := h.users.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ChangeRole handles PUT /users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req identity.ChangeRoleRequest
	if !h.Bind(c, &req) {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Disable handles POST /users/:id/disable
func (h *UserHandler) Disable(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Disable(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Enable handles POST /users/:id/enable
func (h *UserHandler) Enable(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Enable(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ResetPassword handles POST /users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	resp, err := h.users.ResetPassword(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
