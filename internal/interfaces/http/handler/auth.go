package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/application/identity"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/infrastructure/config"
	"github.com/pathway/backend/internal/interfaces/http/middleware"
)

// AuthHandler serves login, logout and session endpoints for one subject
// type. The admin API and the PD portal each mount their own.
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookie      config.CookieConfig
	subject     auth.SubjectType
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookie config.CookieConfig, subject auth.SubjectType) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		subject:     subject,
	}
}

// Login checks credentials and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var input identity.LoginInput
	if !h.Bind(c, &input) {
		return
	}
	input.IP = c.ClientIP()
	input.UserAgent = c.Request.UserAgent()
	input.RequestID = middleware.GetRequestID(c)

	login := h.authService.AdminLogin
	if h.subject == auth.SubjectPD {
		login = h.authService.PDLogin
	}
	result, err := login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, result.Token, result.ExpiresAt)
	h.Success(c, result)
}

// Logout revokes the session and clears the cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.clearCookie(c)
	h.Success(c, nil)
}

// Refresh renews the session with a new token
func (h *AuthHandler) Refresh(c *gin.Context) {
	result, err := h.authService.Refresh(c.Request.Context(), middleware.GetClaims(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.setCookie(c, result.Token, result.ExpiresAt)
	h.Success(c, result)
}

// Me returns the signed-in principal
func (h *AuthHandler) Me(c *gin.Context) {
	principal, err := h.authService.Me(c.Request.Context(), middleware.GetClaims(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, principal)
}

// ChangePassword changes the caller's own password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req identity.ChangePasswordRequest
	if !h.Bind(c, &req) {
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), middleware.Actor(c), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

func (h *AuthHandler) setCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	h.writeCookie(c, token, maxAge)
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	h.writeCookie(c, "", -1)
}

func (h *AuthHandler) writeCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(
		middleware.CookieName(h.cookie.Name, h.subject),
		value,
		maxAge,
		h.cookie.Path,
		h.cookie.Domain,
		h.cookie.Secure,
		true,
	)
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
