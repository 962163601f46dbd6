package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/inkthread/storefront/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// AdminUser is a staff account that signs in to the admin API.
// It is the aggregate root for admin identity.
type AdminUser struct {
	shared.BaseAggregateRoot
	Email             string
	Name              string
	PasswordHash      string
	Active            bool
	LastLoginAt       *time.Time
	LastLoginIP       string
	FailedAttempts    int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// NewAdminUser creates an active admin user
func NewAdminUser(email, name, password string) (*AdminUser, error) {
	email = shared.NormalizeEmail(email)
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	user := &AdminUser{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
		PasswordHash:      passwordHash,
		Active:            true,
		PasswordChangedAt: &now,
	}

	user.AddDomainEvent(NewAdminUserCreatedEvent(user))

	return user, nil
}

// VerifyPassword verifies if the provided password matches
func (u *AdminUser) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// ChangePassword changes the password after checking the current one
func (u *AdminUser) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password (seed or reset, no old password check)
func (u *AdminUser) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &now
	u.touch()

	u.AddDomainEvent(NewAdminPasswordChangedEvent(u))

	return nil
}

// Activate re-enables sign in
func (u *AdminUser) Activate() {
	if u.Active {
		return
	}
	u.Active = true
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.touch()
}

// Deactivate disables sign in
func (u *AdminUser) Deactivate() {
	if !u.Active {
		return
	}
	u.Active = false
	u.touch()
}

// RecordLoginSuccess records a successful login
func (u *AdminUser) RecordLoginSuccess(ip string, at time.Time) {
	u.LastLoginAt = &at
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.touch()
}

// RecordLoginFailure records a failed login attempt.
// Returns true if the account is now locked.
func (u *AdminUser) RecordLoginFailure(maxAttempts int, lockDuration time.Duration, at time.Time) bool {
	u.FailedAttempts++
	u.touch()

	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := at.Add(lockDuration)
		u.LockedUntil = &until
		return true
	}
	return false
}

// IsLocked reports whether a lock is in effect at the given time
func (u *AdminUser) IsLocked(at time.Time) bool {
	return u.LockedUntil != nil && at.Before(*u.LockedUntil)
}

// CanLogin returns true if the user may sign in at the given time
func (u *AdminUser) CanLogin(at time.Time) bool {
	return u.Active && !u.IsLocked(at)
}

func (u *AdminUser) touch() {
	u.MarkChanged()
}

var (
	passwordLetter = regexp.MustCompile(`[a-zA-Z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
)

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	// bcrypt ignores bytes past 72
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !passwordLetter.MatchString(password) || !passwordDigit.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
