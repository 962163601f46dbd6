package shared

import "time"

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
	// version last read from or written to storage; zero until then
	persisted int `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// MarkChanged records a state change: Version goes up by one and UpdatedAt
// moves to now. Services compare Version before and after a call to skip
// saving aggregates that did not change.
func (a *BaseAggregateRoot) MarkChanged() {
	a.UpdatedAt = time.Now()
	if !a.UpdatedAt.After(a.CreatedAt) {
		a.UpdatedAt = a.CreatedAt.Add(time.Nanosecond)
	}
	a.Version++
}

// PersistedVersion is the version storage held when the aggregate was loaded
// or last saved. Repositories update only rows still at this version.
func (a *BaseAggregateRoot) PersistedVersion() int {
	return a.persisted
}

// IsPersisted reports whether the aggregate has been loaded or saved
func (a *BaseAggregateRoot) IsPersisted() bool {
	return a.persisted > 0
}

// MarkPersisted records that storage now holds the current Version
func (a *BaseAggregateRoot) MarkPersisted() {
	a.persisted = a.Version
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}
