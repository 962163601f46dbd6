package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence.
// FindAll filters: "status", "campaign_id", "customer_id", "from", "to" (time.Time).
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumber returns an unused order number
	GenerateOrderNumber(ctx context.Context) (string, error)

	// Save creates or updates an order with its items and print locations
	Save(ctx context.Context, o *Order) error
}
