package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/infrastructure/logger"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequirePermission allows the request when the session holds any of the
// listed permissions. It must run after Session.
func RequirePermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abort(c, http.StatusUnauthorized, dto.CodeUnauthorized, "Authentication required")
			return
		}
		for _, p := range permissions {
			if claims.HasPermission(p) {
				c.Next()
				return
			}
		}

		logger.GetGinLogger(c).Warn("Permission denied",
			zap.String("subject_id", claims.Subject),
			zap.Strings("required_any", permissions),
			zap.String("path", c.FullPath()),
		)
		abort(c, http.StatusForbidden, dto.CodeForbidden, "You do not have permission to perform this action")
	}
}
