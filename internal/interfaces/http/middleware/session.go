package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/infrastructure/logger"
	"github.com/pathway/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionClaimsKey = "session_claims"
	SubjectIDKey     = "user_id"
	BearerPrefix     = "Bearer "
)

// SessionConfig configures the Session middleware
type SessionConfig struct {
	JWT        *auth.JWTService
	Blacklist  auth.TokenBlacklist
	CookieName string
	// Subject is the principal type the route group accepts
	Subject auth.SubjectType
	Logger  *zap.Logger
}

// Session authenticates the request from the session cookie, or an
// Authorization bearer token for API clients, and rejects revoked sessions.
// A blacklist that cannot be reached fails closed.
func Session(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := SessionToken(c, cfg.CookieName)
		if token == "" {
			abort(c, http.StatusUnauthorized, dto.CodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.JWT.ValidateSession(token)
		if err != nil {
			code, message := dto.CodeTokenInvalid, "Invalid session"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, message = dto.CodeTokenExpired, "Session has expired"
			}
			abort(c, http.StatusUnauthorized, code, message)
			return
		}

		if claims.SubjectType != cfg.Subject {
			abort(c, http.StatusForbidden, dto.CodeForbidden, "This session cannot access this resource")
			return
		}

		if cfg.Blacklist != nil {
			ctx := c.Request.Context()
			revoked, err := cfg.Blacklist.IsBlacklisted(ctx, claims.ID)
			if err == nil && !revoked {
				revoked, err = cfg.Blacklist.IsSubjectRevoked(ctx, claims.Subject, claims.IssuedAtTime())
			}
			if err != nil {
				log.Error("Failed to check session revocation",
					zap.String("subject_id", claims.Subject),
					zap.Error(err))
				abort(c, http.StatusServiceUnavailable, dto.CodeInternal, "Session could not be verified")
				return
			}
			if revoked {
				abort(c, http.StatusUnauthorized, dto.CodeTokenRevoked, "Session has been revoked")
				return
			}
		}

		c.Set(SessionClaimsKey, claims)
		c.Set(SubjectIDKey, claims.Subject)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// CookieName returns the session cookie name for a subject type, so an
// admin and a PD session can coexist in one browser
func CookieName(base string, subject auth.SubjectType) string {
	if subject == auth.SubjectPD {
		return base + "_pd"
	}
	return base
}

// SessionToken returns the raw session token from the cookie or the
// Authorization header
func SessionToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	return ""
}

// GetClaims returns the session claims set by Session, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(SessionClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// Actor builds the acting principal for the request. Requests without a
// session act as the public.
func Actor(c *gin.Context) shared.Actor {
	ip, ua, requestID := c.ClientIP(), c.Request.UserAgent(), GetRequestID(c)
	claims := GetClaims(c)
	if claims == nil {
		return shared.PublicActor(ip, ua, requestID)
	}

	actor := shared.Actor{
		Type:        shared.ActorTypeAdmin,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		IPAddress:   ip,
		UserAgent:   ua,
		RequestID:   requestID,
	}
	if claims.SubjectType == auth.SubjectPD {
		actor.Type = shared.ActorTypePD
	}
	if id, err := claims.SubjectUUID(); err == nil {
		actor.ID = &id
	}
	return actor
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
