package campaign

import (
	"context"

	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
)

// TransactionScope runs campaign work that touches several aggregates atomically.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to one transaction.
type TransactionalRepositories interface {
	Campaigns() campaign.CampaignRepository
	CampaignOrders() campaign.CampaignOrderRepository
	Orders() order.OrderRepository
	Customers() customer.CustomerRepository
}
