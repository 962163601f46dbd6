package persistence

import (
	"context"

	campaignapp "github.com/inkthread/storefront/internal/application/campaign"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// If the function returns an error, the transaction is rolled back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos campaignapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Campaigns() campaign.CampaignRepository {
	return NewGormCampaignRepository(r.tx)
}

func (r *gormTransactionalRepositories) CampaignOrders() campaign.CampaignOrderRepository {
	return NewGormCampaignOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() order.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() customer.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

var (
	_ campaignapp.TransactionScope          = (*GormTransactionScope)(nil)
	_ campaignapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
