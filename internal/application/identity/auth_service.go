package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Authentication errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrSessionExpired     = shared.NewDomainError("TOKEN_EXPIRED", "Session has expired")
	ErrSessionInvalid     = shared.NewDomainError("TOKEN_INVALID", "Invalid session")
	ErrSessionTooOld      = shared.NewDomainError("TOKEN_MAX_REFRESH", "Session can no longer be renewed. Please sign in again")
	ErrAccountInactive    = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
)

// AuthService signs admins and PDs in and out
type AuthService struct {
	users     identity.AdminUserRepository
	pds       partner.PDRepository
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	tx        shared.TxManager
	recorder  *auditapp.Recorder
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.AdminUserRepository,
	pds partner.PDRepository,
	jwt *auth.JWTService,
	blacklist auth.TokenBlacklist,
	tx shared.TxManager,
	recorder *auditapp.Recorder,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		pds:       pds,
		jwt:       jwt,
		blacklist: blacklist,
		tx:        tx,
		recorder:  recorder,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// AdminLogin authenticates an admin user
func (s *AuthService) AdminLogin(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if shared.IsNotFound(err) {
		s.logger.Warn("Admin login for unknown email", zap.String("ip", input.IP))
		s.metrics.LoginAttempt(string(auth.SubjectAdmin), false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := user.LoginAllowed(now); err != nil {
		s.logger.Warn("Admin login refused", zap.String("user_id", user.ID.String()), zap.Error(err))
		s.metrics.LoginAttempt(string(auth.SubjectAdmin), false)
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(now)
		if err := s.users.Save(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		s.metrics.LoginAttempt(string(auth.SubjectAdmin), false)
		if locked {
			s.logger.Warn("Admin account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", shared.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, ErrInvalidCredentials
	}

	session, err := s.jwt.IssueSession(auth.SessionInput{
		SubjectType: auth.SubjectAdmin,
		SubjectID:   user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: user.Permissions(),
	})
	if err != nil {
		s.logger.Error("Failed to issue session", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create session")
	}

	user.RecordLoginSuccess(now, input.IP)
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}
	s.audit(ctx, input, user.ID, user.Email, shared.ActorTypeAdmin, audit.ActionUserLogin, audit.EntityAdminUser)
	s.metrics.LoginAttempt(string(auth.SubjectAdmin), true)
	s.logger.Info("Admin signed in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))

	return &LoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Principal: adminPrincipal(user),
	}, nil
}

// PDLogin authenticates a PD for the portal
func (s *AuthService) PDLogin(ctx context.Context, input LoginInput) (*LoginResult, error) {
	pd, err := s.pds.FindByEmail(ctx, input.Email)
	if shared.IsNotFound(err) {
		s.logger.Warn("PD login for unknown email", zap.String("ip", input.IP))
		s.metrics.LoginAttempt(string(auth.SubjectPD), false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := pd.LoginAllowed(now); err != nil {
		s.logger.Warn("PD login refused", zap.String("pd_code", pd.Code), zap.Error(err))
		s.metrics.LoginAttempt(string(auth.SubjectPD), false)
		return nil, err
	}

	if !pd.VerifyPassword(input.Password) {
		locked := pd.RecordLoginFailure(now)
		if err := s.pds.Save(ctx, pd); err != nil {
			s.logger.Error("Failed to update PD after login failure", zap.Error(err))
		}
		s.metrics.LoginAttempt(string(auth.SubjectPD), false)
		if locked {
			s.logger.Warn("PD account locked after too many failed attempts", zap.String("pd_code", pd.Code))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, ErrInvalidCredentials
	}

	session, err := s.jwt.IssueSession(auth.SessionInput{
		SubjectType: auth.SubjectPD,
		SubjectID:   pd.ID,
		Email:       pd.Email,
		Permissions: []string{identity.PermPDPortal},
	})
	if err != nil {
		s.logger.Error("Failed to issue session", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create session")
	}

	pd.RecordLoginSuccess(now, input.IP)
	if err := s.pds.Save(ctx, pd); err != nil {
		s.logger.Error("Failed to update PD after successful login", zap.Error(err))
	}
	s.audit(ctx, input, pd.ID, pd.Email, shared.ActorTypePD, audit.ActionPDLogin, audit.EntityPD)
	s.metrics.LoginAttempt(string(auth.SubjectPD), true)
	s.logger.Info("PD signed in", zap.String("pd_code", pd.Code))

	return &LoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Principal: pdPrincipal(pd),
	}, nil
}

// audit records a successful login. The session is already issued, so a
// failure is only logged.
func (s *AuthService) audit(ctx context.Context, input LoginInput, id uuid.UUID, email string, actorType shared.ActorType, action, entity string) {
	subject := shared.Actor{
		ID:        &id,
		Type:      actorType,
		Email:     email,
		IPAddress: input.IP,
		UserAgent: input.UserAgent,
		RequestID: input.RequestID,
	}
	if err := s.recorder.Record(ctx, subject, action, entity, id, nil); err != nil {
		s.logger.Error("Failed to audit login", zap.String("action", action), zap.Error(err))
	}
}

// Logout revokes the presented session until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrSessionInvalid
	}
	ttl := claims.RemainingTTL()
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Failed to revoke session", zap.Error(err))
		return err
	}
	s.logger.Info("Session revoked", zap.String("subject", claims.Subject), zap.String("subject_type", string(claims.SubjectType)))
	return nil
}

// Refresh renews a still valid session. Permissions are reloaded so role
// changes apply at the next renewal.
func (s *AuthService) Refresh(ctx context.Context, claims *auth.Claims) (*LoginResult, error) {
	principal, err := s.principal(ctx, claims)
	if err != nil {
		return nil, err
	}

	session, err := s.jwt.RefreshSession(claims, principal.Permissions)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, ErrSessionExpired
		case errors.Is(err, auth.ErrMaxRefreshExceeded), errors.Is(err, auth.ErrSessionTooOld):
			return nil, ErrSessionTooOld
		default:
			s.logger.Warn("Session refresh failed", zap.Error(err))
			return nil, ErrSessionInvalid
		}
	}
	if ttl := claims.RemainingTTL(); ttl > 0 {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, ttl); err != nil {
			s.logger.Error("Failed to revoke renewed session", zap.Error(err))
		}
	}

	return &LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt, Principal: *principal}, nil
}

// Me returns the session's principal
func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (*Principal, error) {
	return s.principal(ctx, claims)
}

func (s *AuthService) principal(ctx context.Context, claims *auth.Claims) (*Principal, error) {
	if claims == nil {
		return nil, ErrSessionInvalid
	}
	id, err := claims.SubjectUUID()
	if err != nil {
		return nil, ErrSessionInvalid
	}

	switch claims.SubjectType {
	case auth.SubjectAdmin:
		user, err := s.users.FindByID(ctx, id)
		if shared.IsNotFound(err) {
			return nil, ErrSessionInvalid
		}
		if err != nil {
			return nil, err
		}
		if !user.IsActive() {
			return nil, ErrAccountInactive
		}
		p := adminPrincipal(user)
		return &p, nil
	case auth.SubjectPD:
		pd, err := s.pds.FindByID(ctx, id)
		if shared.IsNotFound(err) {
			return nil, ErrSessionInvalid
		}
		if err != nil {
			return nil, err
		}
		if !pd.IsActive() {
			return nil, ErrAccountInactive
		}
		p := pdPrincipal(pd)
		return &p, nil
	}
	return nil, ErrSessionInvalid
}

// ChangePassword changes the caller's own password
func (s *AuthService) ChangePassword(ctx context.Context, actor shared.Actor, req ChangePasswordRequest) error {
	if actor.ID == nil {
		return shared.ErrUnauthorized
	}

	switch actor.Type {
	case shared.ActorTypeAdmin:
		user, err := s.users.FindByID(ctx, *actor.ID)
		if err != nil {
			return err
		}
		if err := user.UpdatePassword(req.CurrentPassword, req.NewPassword); err != nil {
			return err
		}
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.users.Save(ctx, user); err != nil {
				return err
			}
			return s.recordPasswordChange(ctx, actor, audit.EntityAdminUser)
		})
		if err != nil {
			return err
		}
	case shared.ActorTypePD:
		pd, err := s.pds.FindByID(ctx, *actor.ID)
		if err != nil {
			return err
		}
		if err := pd.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
			return err
		}
		pd.Touch()
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.pds.Save(ctx, pd); err != nil {
				return err
			}
			return s.recordPasswordChange(ctx, actor, audit.EntityPD)
		})
		if err != nil {
			return err
		}
	default:
		return shared.ErrForbidden
	}

	s.logger.Info("Password changed", zap.String("subject", actor.ID.String()), zap.String("actor_type", string(actor.Type)))
	return nil
}

func (s *AuthService) recordPasswordChange(ctx context.Context, actor shared.Actor, entity string) error {
	return s.recorder.Record(ctx, actor, audit.ActionUserPasswordChanged, entity, *actor.ID, nil)
}

func adminPrincipal(u *identity.AdminUser) Principal {
	return Principal{
		ID:                 u.ID,
		SubjectType:        string(auth.SubjectAdmin),
		Email:              u.Email,
		Name:               u.Name,
		Role:               string(u.Role),
		Permissions:        u.Permissions(),
		MustChangePassword: u.MustChangePassword,
		LastLoginAt:        u.LastLoginAt,
	}
}

func pdPrincipal(pd *partner.PD) Principal {
	return Principal{
		ID:          pd.ID,
		SubjectType: string(auth.SubjectPD),
		Email:       pd.Email,
		Name:        pd.FullName(),
		PDCode:      pd.Code,
		City:        pd.City,
		Permissions: []string{identity.PermPDPortal},
		LastLoginAt: pd.LastLoginAt,
	}
}
