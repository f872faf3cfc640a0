package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// User management errors
var (
	ErrEmailTaken       = shared.NewDomainError("EMAIL_TAKEN", "A user with this email already exists")
	ErrSuperAdminOnly   = shared.NewDomainError("FORBIDDEN", "Only a super admin can manage super admins")
	ErrCannotChangeSelf = shared.NewDomainError("CANNOT_CHANGE_SELF", "You cannot change your own role")
)

// UserService manages admin accounts
type UserService struct {
	users      identity.AdminUserRepository
	tx         shared.TxManager
	recorder   *auditapp.Recorder
	sessions   auth.TokenBlacklist
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewUserService creates a new user service. Role changes, disabling and
// password resets revoke the user's sessions for sessionTTL.
func NewUserService(
	users identity.AdminUserRepository,
	tx shared.TxManager,
	recorder *auditapp.Recorder,
	sessions auth.TokenBlacklist,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:      users,
		tx:         tx,
		recorder:   recorder,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// List retrieves a page of admin users
func (s *UserService) List(ctx context.Context, filter ListUsersFilter) ([]UserResponse, int64, error) {
	f := filter.ToFilter()
	users, err := s.users.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out, total, nil
}

// Get retrieves an admin user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Create adds an admin user
func (s *UserService) Create(ctx context.Context, actor shared.Actor, req CreateUserRequest) (*CreateUserResponse, error) {
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCanManageRole(ctx, actor, role); err != nil {
		return nil, err
	}
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	password := req.Password
	generated := password == ""
	if generated {
		if password, err = shared.NewTemporaryPassword(); err != nil {
			return nil, err
		}
	}
	user, err := identity.NewAdminUser(req.Email, req.Name, role, password)
	if err != nil {
		return nil, err
	}
	user.MustChangePassword = generated

	changes := audit.After(map[string]any{"email": user.Email, "name": user.Name, "role": user.Role})
	if err := s.save(ctx, actor, user, audit.ActionUserCreated, changes); err != nil {
		return nil, err
	}
	s.logger.Info("Admin user created", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))

	resp := &CreateUserResponse{User: ToUserResponse(user)}
	if generated {
		resp.TemporaryPassword = password
	}
	return resp, nil
}

// ChangeRole moves a user to another role and ends their sessions so the
// new permissions apply at once.
func (s *UserService) ChangeRole(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeRoleRequest) (*UserResponse, error) {
	if actor.ID != nil && *actor.ID == id {
		return nil, ErrCannotChangeSelf
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleSuperAdmin || role == identity.RoleSuperAdmin {
		if err := s.ensureCanManageRole(ctx, actor, identity.RoleSuperAdmin); err != nil {
			return nil, err
		}
	}
	from := user.Role
	if err := user.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, user, audit.ActionUserRoleChanged, audit.Diff("role", from, role)); err != nil {
		return nil, err
	}
	s.revoke(ctx, user)

	resp := ToUserResponse(user)
	return &resp, nil
}

// Disable blocks a user's sign-in and ends their sessions
func (s *UserService) Disable(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	by, err := s.actingUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := user.Disable(by); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, user, audit.ActionUserDisabled, audit.Diff("status", identity.UserStatusActive, user.Status)); err != nil {
		return nil, err
	}
	s.revoke(ctx, user)

	resp := ToUserResponse(user)
	return &resp, nil
}

// Enable restores a disabled user
func (s *UserService) Enable(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Enable(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, user, audit.ActionUserEnabled, audit.Diff("status", identity.UserStatusDisabled, user.Status)); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ResetPassword issues a one-time password and ends the user's sessions
func (s *UserService) ResetPassword(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PasswordResetResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleSuperAdmin {
		if err := s.ensureCanManageRole(ctx, actor, identity.RoleSuperAdmin); err != nil {
			return nil, err
		}
	}
	temp, err := user.ResetPassword()
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, user, audit.ActionUserPasswordReset, nil); err != nil {
		return nil, err
	}
	s.revoke(ctx, user)
	return &PasswordResetResponse{TemporaryPassword: temp}, nil
}

// Bootstrap creates the first super admin when no admin user exists.
// It returns false when users are already present.
func (s *UserService) Bootstrap(ctx context.Context, email, password, name string) (bool, error) {
	count, err := s.users.Count(ctx, shared.DefaultFilter())
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if name == "" {
		name = "Administrator"
	}
	user, err := identity.NewAdminUser(email, name, identity.RoleSuperAdmin, password)
	if err != nil {
		return false, err
	}
	if err := s.save(ctx, shared.SystemActor(), user, audit.ActionUserCreated,
		audit.After(map[string]any{"email": user.Email, "role": user.Role, "bootstrap": true})); err != nil {
		return false, err
	}
	s.logger.Info("Bootstrap super admin created", zap.String("email", user.Email))
	return true, nil
}

// ensureCanManageRole only lets super admins hand out or manage the super
// admin role.
func (s *UserService) ensureCanManageRole(ctx context.Context, actor shared.Actor, role identity.Role) error {
	if role != identity.RoleSuperAdmin {
		return nil
	}
	by, err := s.actingUser(ctx, actor)
	if err != nil {
		return err
	}
	if by == nil || by.Role != identity.RoleSuperAdmin {
		return ErrSuperAdminOnly
	}
	return nil
}

// actingUser loads the admin behind actor. System actors have no user.
func (s *UserService) actingUser(ctx context.Context, actor shared.Actor) (*identity.AdminUser, error) {
	if actor.Type == shared.ActorTypeSystem {
		return nil, nil
	}
	if actor.ID == nil || actor.Type != shared.ActorTypeAdmin {
		return nil, shared.ErrUnauthorized
	}
	by, err := s.users.FindByID(ctx, *actor.ID)
	if shared.IsNotFound(err) {
		return nil, shared.ErrUnauthorized
	}
	return by, err
}

func (s *UserService) revoke(ctx context.Context, user *identity.AdminUser) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeSubject(ctx, user.ID.String(), s.sessionTTL); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *UserService) save(ctx context.Context, actor shared.Actor, user *identity.AdminUser, action string, changes *audit.Changes) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Save(ctx, user); err != nil {
			return err
		}
		return s.recorder.Record(ctx, actor, action, audit.EntityAdminUser, user.ID, changes)
	})
}
