package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new password hashes
var PasswordCost = 12

// Login lockout policy shared by admin users and PDs
const (
	MaxLoginAttempts = 5
	LockDuration     = 15 * time.Minute
)

var (
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
)

// Credential is the login state for any principal that signs in with a
// password.
type Credential struct {
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string
}

// SetPassword validates and hashes a new password
func (c *Credential) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	c.PasswordHash = string(hash)
	return nil
}

// VerifyPassword verifies if the provided password matches
func (c *Credential) VerifyPassword(password string) bool {
	if c.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after checking the current one
func (c *Credential) ChangePassword(current, next string) error {
	if !c.VerifyPassword(current) {
		return NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return c.SetPassword(next)
}

// IsLocked reports whether the lockout window is still running
func (c *Credential) IsLocked(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// RecordLoginFailure counts a failed attempt.
// Returns true if this attempt locked the account.
func (c *Credential) RecordLoginFailure(now time.Time) bool {
	c.FailedAttempts++
	if c.FailedAttempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		c.LockedUntil = &until
		c.FailedAttempts = 0
		return true
	}
	return false
}

// RecordLoginSuccess resets the failure counter
func (c *Credential) RecordLoginSuccess(now time.Time, ip string) {
	c.FailedAttempts = 0
	c.LockedUntil = nil
	c.LastLoginAt = &now
	c.LastLoginIP = ip
}

// Unlock clears any lockout
func (c *Credential) Unlock() {
	c.FailedAttempts = 0
	c.LockedUntil = nil
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

// NewTemporaryPassword generates a one-time password that satisfies
// ValidatePassword.
func NewTemporaryPassword() (string, error) {
	for {
		code, err := NewCode("Tmp", 10)
		if err != nil {
			return "", fmt.Errorf("failed to generate temporary password: %w", err)
		}
		if strings.ContainsAny(code[4:], "23456789") {
			return code, nil
		}
	}
}
