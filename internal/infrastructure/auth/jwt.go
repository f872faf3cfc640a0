package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pathway/backend/internal/infrastructure/config"
)

// SubjectType tells admin sessions from PD portal sessions
type SubjectType string

const (
	SubjectAdmin SubjectType = "admin"
	SubjectPD    SubjectType = "pd"
)

// IsValid checks if the subject type is valid
func (t SubjectType) IsValid() bool {
	return t == SubjectAdmin || t == SubjectPD
}

// Common errors
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMissingSubject     = errors.New("missing subject in claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrSessionTooOld      = errors.New("session can no longer be renewed")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims are the session token claims
type Claims struct {
	jwt.RegisteredClaims
	SubjectType  SubjectType `json:"subject_type"`
	Email        string      `json:"email"`
	Role         string      `json:"role,omitempty"`
	Permissions  []string    `json:"permissions,omitempty"`
	AuthTime     int64       `json:"auth_time"`
	RefreshCount int         `json:"refresh_count,omitempty"`
}

// Session is a signed session token
type Session struct {
	Token     string    `json:"-"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionInput contains input for session issuance
type SessionInput struct {
	SubjectType SubjectType
	SubjectID   uuid.UUID
	Email       string
	Role        string
	Permissions []string
}

// JWTService handles session token operations
type JWTService struct {
	secret          []byte
	expiration      time.Duration
	maxLifetime     time.Duration
	issuer          string
	maxRefreshCount int
}

// NewJWTService creates a new JWT service. RefreshTokenExpiration bounds how
// long after login a session may still be renewed.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:          []byte(cfg.Secret),
		expiration:      cfg.AccessTokenExpiration,
		maxLifetime:     cfg.RefreshTokenExpiration,
		issuer:          cfg.Issuer,
		maxRefreshCount: cfg.MaxRefreshCount,
	}
}

// IssueSession signs a new session token for a fresh login
func (s *JWTService) IssueSession(input SessionInput) (*Session, error) {
	if !input.SubjectType.IsValid() || input.SubjectID == uuid.Nil {
		return nil, ErrInvalidClaims
	}
	now := time.Now()
	return s.sign(&Claims{
		RegisteredClaims: s.registered(input.SubjectID.String(), now),
		SubjectType:      input.SubjectType,
		Email:            input.Email,
		Role:             input.Role,
		Permissions:      input.Permissions,
		AuthTime:         now.Unix(),
	}, now)
}

// RefreshSession re-issues a still valid session with a new ID and expiry.
// The permissions are replaced so role changes take effect.
func (s *JWTService) RefreshSession(claims *Claims, permissions []string) (*Session, error) {
	if s.maxRefreshCount > 0 && claims.RefreshCount >= s.maxRefreshCount {
		return nil, ErrMaxRefreshExceeded
	}
	now := time.Now()
	if s.maxLifetime > 0 && now.After(time.Unix(claims.AuthTime, 0).Add(s.maxLifetime)) {
		return nil, ErrSessionTooOld
	}
	return s.sign(&Claims{
		RegisteredClaims: s.registered(claims.Subject, now),
		SubjectType:      claims.SubjectType,
		Email:            claims.Email,
		Role:             claims.Role,
		Permissions:      permissions,
		AuthTime:         claims.AuthTime,
		RefreshCount:     claims.RefreshCount + 1,
	}, now)
}

func (s *JWTService) registered(subject string, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    s.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (s *JWTService) sign(claims *Claims, now time.Time) (*Session, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     signed,
		ID:        claims.ID,
		ExpiresAt: now.Add(s.expiration),
	}, nil
}

// ValidateSession validates a session token and returns its claims
func (s *JWTService) ValidateSession(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.SubjectType.IsValid() {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Expiration returns the session lifetime
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// SubjectUUID parses the subject ID
func (c *Claims) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// HasPermission checks if the claims contain a specific permission
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// IssuedAtTime returns the token's issued-at time
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// RemainingTTL returns the time until the token expires
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
