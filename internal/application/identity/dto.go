package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
)

// LoginInput contains the input for a password login
type LoginInput struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,max=72"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
	RequestID string `json:"-"`
}

// LoginResult contains the session and the signed-in principal
type LoginResult struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal Principal `json:"principal"`
}

// Principal describes who a session belongs to
type Principal struct {
	ID                 uuid.UUID  `json:"id"`
	SubjectType        string     `json:"subject_type"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Role               string     `json:"role,omitempty"`
	PDCode             string     `json:"pd_code,omitempty"`
	City               string     `json:"city,omitempty"`
	Permissions        []string   `json:"permissions"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
}

// ChangePasswordRequest changes the caller's own password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=72"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// ListUsersFilter represents admin user query parameters
type ListUsersFilter struct {
	Role     string `form:"role" binding:"omitempty,oneof=super_admin admin case_manager finance compliance viewer"`
	Status   string `form:"status" binding:"omitempty,oneof=active disabled"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListUsersFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.Search = f.Search
	if f.Role != "" {
		filter.Filters["role"] = f.Role
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter.Normalize()
}

// UserResponse represents an admin user in API responses
type UserResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	Status             string     `json:"status"`
	MustChangePassword bool       `json:"must_change_password"`
	Locked             bool       `json:"locked"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP        string     `json:"last_login_ip,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToUserResponse converts a domain AdminUser to UserResponse
func ToUserResponse(u *identity.AdminUser) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               string(u.Role),
		Status:             string(u.Status),
		MustChangePassword: u.MustChangePassword,
		Locked:             u.IsLocked(time.Now()),
		LastLoginAt:        u.LastLoginAt,
		LastLoginIP:        u.LastLoginIP,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// CreateUserRequest creates an admin user. A blank password generates a
// one-time password that must be changed on first sign-in.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Role     string `json:"role" binding:"required,oneof=super_admin admin case_manager finance compliance viewer"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

// CreateUserResponse returns the new user and any generated password
type CreateUserResponse struct {
	User              UserResponse `json:"user"`
	TemporaryPassword string       `json:"temporary_password,omitempty"`
}

// ChangeRoleRequest moves a user to another role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=super_admin admin case_manager finance compliance viewer"`
}

// PasswordResetResponse returns a one-time password
type PasswordResetResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}
