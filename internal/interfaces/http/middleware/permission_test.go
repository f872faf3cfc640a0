package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func withClaims(claims *auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(SessionClaimsKey, claims)
		}
		c.Next()
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name     string
		claims   *auth.Claims
		required []string
		status   int
	}{
		{"holds permission", &auth.Claims{Permissions: []string{"cases:read"}}, []string{"cases:read"}, http.StatusOK},
		{"holds one of several", &auth.Claims{Permissions: []string{"cases:assign"}}, []string{"cases:write", "cases:assign"}, http.StatusOK},
		{"lacks permission", &auth.Claims{Permissions: []string{"cases:read"}}, []string{"users:manage"}, http.StatusForbidden},
		{"no permissions", &auth.Claims{}, []string{"cases:read"}, http.StatusForbidden},
		{"no session", nil, []string{"cases:read"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := okRouter(withClaims(tt.claims), RequirePermission(tt.required...))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, dto.CodeForbidden, decodeError(t, w).Code)
			}
		})
	}
}
