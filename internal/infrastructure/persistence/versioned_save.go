package persistence

import (
	"github.com/inkthread/storefront/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versioned is implemented by every aggregate root through
// shared.BaseAggregateRoot.
type versioned interface {
	IsPersisted() bool
	PersistedVersion() int
}

// saveVersioned inserts an aggregate that was never stored. Otherwise it
// updates the row only while its version is still the one the aggregate was
// loaded at, and returns shared.ErrConcurrencyConflict when another writer
// got there first. Associations are left to the caller.
func saveVersioned(tx *gorm.DB, model any, agg versioned) error {
	if !agg.IsPersisted() {
		return tx.Omit(clause.Associations).Create(model).Error
	}

	result := tx.Model(model).
		Where("version = ?", agg.PersistedVersion()).
		Select("*").
		Omit(clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
