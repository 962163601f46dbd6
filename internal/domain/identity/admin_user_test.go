package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdminUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewAdminUser(" Ops@Example.COM ", "Ops Team", "Password123")

		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", user.Email)
		assert.Equal(t, "Ops Team", user.Name)
		assert.True(t, user.Active)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.NotNil(t, user.PasswordChangedAt)

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*AdminUserCreatedEvent)
		assert.True(t, ok)
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewAdminUser("nope", "Ops", "Password123")
		assert.Error(t, err)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewAdminUser("ops@example.com", "  ", "Password123")
		assert.ErrorContains(t, err, "Name cannot be empty")
	})

	t.Run("password rules", func(t *testing.T) {
		cases := map[string]string{
			"":                       "cannot be empty",
			"Pass1":                  "at least 8 characters",
			"12345678":               "at least one letter",
			"Password":               "at least one letter and one number",
			strings.Repeat("a1", 40): "cannot exceed 72",
		}
		for pw, want := range cases {
			_, err := NewAdminUser("ops@example.com", "Ops", pw)
			assert.ErrorContains(t, err, want, pw)
		}
	})
}

func TestAdminUser_PasswordOperations(t *testing.T) {
	user, err := NewAdminUser("ops@example.com", "Ops", "Password123")
	require.NoError(t, err)
	user.ClearDomainEvents()

	assert.True(t, user.VerifyPassword("Password123"))
	assert.False(t, user.VerifyPassword("WrongPassword1"))

	err = user.ChangePassword("WrongPassword1", "NewPassword456")
	assert.ErrorContains(t, err, "Current password is incorrect")

	require.NoError(t, user.ChangePassword("Password123", "NewPassword456"))
	assert.True(t, user.VerifyPassword("NewPassword456"))
	assert.False(t, user.VerifyPassword("Password123"))

	events := user.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeAdminPasswordChanged, events[0].EventType())
}

func TestAdminUser_LoginTracking(t *testing.T) {
	user, err := NewAdminUser("ops@example.com", "Ops", "Password123")
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.False(t, user.RecordLoginFailure(3, 15*time.Minute, now))
	assert.False(t, user.RecordLoginFailure(3, 15*time.Minute, now))
	assert.True(t, user.RecordLoginFailure(3, 15*time.Minute, now))

	assert.True(t, user.IsLocked(now.Add(time.Minute)))
	assert.False(t, user.CanLogin(now.Add(time.Minute)))
	assert.True(t, user.CanLogin(now.Add(16*time.Minute)))

	user.RecordLoginSuccess("10.0.0.1", now.Add(20*time.Minute))
	assert.Equal(t, 0, user.FailedAttempts)
	assert.Nil(t, user.LockedUntil)
	assert.Equal(t, "10.0.0.1", user.LastLoginIP)
	require.NotNil(t, user.LastLoginAt)

	user.Deactivate()
	assert.False(t, user.CanLogin(now.Add(time.Hour)))
	user.Activate()
	assert.True(t, user.CanLogin(now.Add(time.Hour)))
}
