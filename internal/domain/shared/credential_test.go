package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "secret123", false},
		{"too short", "abc1", true},
		{"no number", "abcdefghij", true},
		{"no letter", "1234567890", true},
		{"too long", "a1" + string(make([]byte, 80)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredential_Password(t *testing.T) {
	var c Credential
	assert.False(t, c.VerifyPassword("anything1"))

	require.NoError(t, c.SetPassword("secret123"))
	assert.True(t, c.VerifyPassword("secret123"))
	assert.False(t, c.VerifyPassword("secret124"))

	err := c.ChangePassword("wrong1234", "newpass99")
	require.Error(t, err)
	assert.Equal(t, "INVALID_PASSWORD", err.(*DomainError).Code)

	require.NoError(t, c.ChangePassword("secret123", "newpass99"))
	assert.True(t, c.VerifyPassword("newpass99"))
}

func TestCredential_Lockout(t *testing.T) {
	var c Credential
	now := time.Now()

	for i := 1; i < MaxLoginAttempts; i++ {
		assert.False(t, c.RecordLoginFailure(now))
	}
	assert.True(t, c.RecordLoginFailure(now))
	assert.True(t, c.IsLocked(now))
	assert.True(t, c.IsLocked(now.Add(LockDuration-time.Second)))
	assert.False(t, c.IsLocked(now.Add(LockDuration+time.Second)))

	c.RecordLoginSuccess(now, "10.0.0.1")
	assert.False(t, c.IsLocked(now))
	assert.Equal(t, 0, c.FailedAttempts)
	assert.Equal(t, "10.0.0.1", c.LastLoginIP)
}

func TestNewTemporaryPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		p, err := NewTemporaryPassword()
		require.NoError(t, err)
		assert.NoError(t, ValidatePassword(p), p)
	}
}
