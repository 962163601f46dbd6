package identity

import (
	"time"

	"github.com/inkthread/storefront/internal/domain/shared"
)

// Aggregate type constant for AdminUser
const AggregateTypeAdminUser = "AdminUser"

// AdminUser domain event types
const (
	EventTypeAdminUserCreated     = "AdminUserCreated"
	EventTypeAdminPasswordChanged = "AdminPasswordChanged"
)

// AdminUserCreatedEvent is published when an admin user is created
type AdminUserCreatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewAdminUserCreatedEvent creates a new AdminUserCreatedEvent
func NewAdminUserCreatedEvent(user *AdminUser) *AdminUserCreatedEvent {
	return &AdminUserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdminUserCreated, AggregateTypeAdminUser, user.ID),
		Email:           user.Email,
		Name:            user.Name,
	}
}

// AdminPasswordChangedEvent is published when an admin's password changes
type AdminPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewAdminPasswordChangedEvent creates a new AdminPasswordChangedEvent
func NewAdminPasswordChangedEvent(user *AdminUser) *AdminPasswordChangedEvent {
	changedAt := time.Now()
	if user.PasswordChangedAt != nil {
		changedAt = *user.PasswordChangedAt
	}
	return &AdminPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdminPasswordChanged, AggregateTypeAdminUser, user.ID),
		Email:           user.Email,
		ChangedAt:       changedAt,
	}
}
