package identity

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// UserStatus represents the status of an admin user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// IsValid checks if the status is valid
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusDisabled
}

// AdminUser is a staff account for the admin dashboard
type AdminUser struct {
	shared.BaseAggregateRoot
	shared.Credential
	Email              string
	Name               string
	Role               Role
	Status             UserStatus
	MustChangePassword bool
}

// NewAdminUser creates an active admin user
func NewAdminUser(email, name string, role Role, password string) (*AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is not valid")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role %q", role))
	}
	u := &AdminUser{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
		Role:              role,
		Status:            UserStatusActive,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// Permissions returns the codes granted through the user's role
func (u *AdminUser) Permissions() []string {
	return u.Role.Permissions()
}

// IsActive returns true if the user may sign in
func (u *AdminUser) IsActive() bool {
	return u.Status == UserStatusActive
}

// ChangeRole moves the user to another role
func (u *AdminUser) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role %q", role))
	}
	if u.Role == role {
		return shared.NewDomainError("ROLE_UNCHANGED", "User already has this role")
	}
	u.Role = role
	u.Touch()
	return nil
}

// Disable blocks sign-in. by is the acting user.
func (u *AdminUser) Disable(by *AdminUser) error {
	if by != nil {
		if by.ID == u.ID {
			return shared.NewDomainError("CANNOT_DISABLE_SELF", "You cannot disable your own account")
		}
		if u.Role == RoleSuperAdmin && by.Role != RoleSuperAdmin {
			return shared.NewDomainError("FORBIDDEN", "Only a super admin can disable a super admin")
		}
	}
	if u.Status == UserStatusDisabled {
		return shared.NewDomainError("INVALID_STATE", "User is already disabled")
	}
	u.Status = UserStatusDisabled
	u.Touch()
	return nil
}

// Enable restores sign-in
func (u *AdminUser) Enable() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("INVALID_STATE", "User is already active")
	}
	u.Status = UserStatusActive
	u.Unlock()
	u.Touch()
	return nil
}

// ResetPassword sets a generated one-time password that must be changed on
// next sign-in, and returns it.
func (u *AdminUser) ResetPassword() (string, error) {
	temp, err := shared.NewTemporaryPassword()
	if err != nil {
		return "", err
	}
	if err := u.SetPassword(temp); err != nil {
		return "", err
	}
	u.MustChangePassword = true
	u.Unlock()
	u.Touch()
	return temp, nil
}

// UpdatePassword changes the user's own password
func (u *AdminUser) UpdatePassword(current, next string) error {
	if err := u.ChangePassword(current, next); err != nil {
		return err
	}
	u.MustChangePassword = false
	u.Touch()
	return nil
}

// LoginAllowed checks status and lockout before a password is verified
func (u *AdminUser) LoginAllowed(now time.Time) error {
	if u.IsLocked(now) {
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked")
	}
	if !u.IsActive() {
		return shared.NewDomainError("ACCOUNT_DISABLED", "Account is disabled")
	}
	return nil
}

// AdminUserRepository defines the interface for admin user persistence
type AdminUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)

	// FindAll finds users matching the filter.
	// Supported filter keys: role, status
	FindAll(ctx context.Context, filter shared.Filter) ([]AdminUser, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *AdminUser) error
}
