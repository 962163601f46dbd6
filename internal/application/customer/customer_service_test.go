package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

// ==================== Upsert ====================

func TestUpsertByEmail_CreatesCustomer(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, zap.NewNop())

	repo.On("FindByEmail", mock.Anything, "jo@example.com").Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*customer.Customer")).Return(nil)

	c, err := svc.UpsertByEmail(context.Background(), Contact{Email: " Jo@Example.com ", Name: "Jo", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", c.Email)
	assert.Equal(t, "555-0100", c.Phone)
	assert.Empty(t, c.GetDomainEvents())
}

func TestUpsertByEmail_ExistingUnchangedSkipsSave(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil)
	existing, err := customer.NewCustomer("jo@example.com", "Jo")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "jo@example.com").Return(existing, nil)

	c, err := svc.UpsertByEmail(context.Background(), Contact{Email: "jo@example.com", Name: "Jo"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, c.ID)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpsertByEmail_ExistingFillsContact(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil)
	existing, err := customer.NewCustomer("jo@example.com", "")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "jo@example.com").Return(existing, nil)
	repo.On("Save", mock.Anything, existing).Return(nil)

	c, err := svc.UpsertByEmail(context.Background(), Contact{Email: "jo@example.com", Name: "Jo Park"})
	require.NoError(t, err)
	assert.Equal(t, "Jo Park", c.Name)
}

func TestUpsertByEmail_InvalidEmail(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil)
	repo.On("FindByEmail", mock.Anything, "not-an-email").Return(nil, shared.ErrNotFound)

	_, err := svc.UpsertByEmail(context.Background(), Contact{Email: "not-an-email"})
	require.Error(t, err)
}

func TestUpsertByEmail_RepositoryError(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil)
	repo.On("FindByEmail", mock.Anything, "jo@example.com").Return(nil, errors.New("connection reset"))

	_, err := svc.UpsertByEmail(context.Background(), Contact{Email: "jo@example.com"})
	assert.EqualError(t, err, "connection reset")
}

// ==================== Queries ====================

func TestCustomerService_List(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil)
	c, err := customer.NewCustomer("jo@example.com", "Jo")
	require.NoError(t, err)

	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Search == "jo" && f.OrderBy == "total_spent" && f.Page == 2
	})).Return([]customer.Customer{*c}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(21), nil)

	page, err := svc.List(context.Background(), CustomerListFilter{Search: " jo ", OrderBy: "total_spent", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "jo@example.com", page.Items[0].Email)
}

func TestCustomerService_GetByID_NotFound(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := svc.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ==================== Event handlers ====================

func TestPurchaseRecorder_OrderPaid(t *testing.T) {
	repo := new(MockCustomerRepository)
	h := NewPurchaseRecorder(repo, zap.NewNop())
	c, err := customer.NewCustomer("jo@example.com", "Jo")
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	repo.On("Save", mock.Anything, c).Return(nil)

	evt := &order.OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPaid, order.AggregateTypeOrder, uuid.New()),
		CustomerID:      c.ID,
		Amount:          decimal.RequireFromString("252.00"),
	}
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Equal(t, 1, c.OrderCount)
	assert.True(t, c.TotalSpent.Equal(decimal.RequireFromString("252.00")))
	assert.WithinDuration(t, time.Now(), *c.LastOrderAt, time.Minute)
}

func TestPurchaseRecorder_CampaignOrderPaid(t *testing.T) {
	repo := new(MockCustomerRepository)
	h := NewPurchaseRecorder(repo, zap.NewNop())
	c, err := customer.NewCustomer("p@example.com", "P")
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	repo.On("Save", mock.Anything, c).Return(nil)

	evt := &campaign.CampaignOrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(campaign.EventTypeCampaignOrderPaid, campaign.AggregateTypeCampaign, uuid.New()),
		CustomerID:      &c.ID,
		Total:           decimal.NewFromInt(40),
	}
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.True(t, c.TotalSpent.Equal(decimal.NewFromInt(40)))

	// anonymous participants are skipped
	require.NoError(t, h.Handle(context.Background(), &campaign.CampaignOrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(campaign.EventTypeCampaignOrderPaid, campaign.AggregateTypeCampaign, uuid.New()),
	}))
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestPurchaseRecorder_UnknownCustomerIsIgnored(t *testing.T) {
	repo := new(MockCustomerRepository)
	h := NewPurchaseRecorder(repo, zap.NewNop())
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	err := h.Handle(context.Background(), &order.OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPaid, order.AggregateTypeOrder, uuid.New()),
		CustomerID:      id,
		Amount:          decimal.NewFromInt(10),
	})
	assert.NoError(t, err)
}

func TestPurchaseRecorder_WrongEventType(t *testing.T) {
	h := NewPurchaseRecorder(new(MockCustomerRepository), zap.NewNop())
	err := h.Handle(context.Background(), &order.OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderRefunded, order.AggregateTypeOrder, uuid.New()),
	})
	assert.Error(t, err)
}

func TestRefundRecorder(t *testing.T) {
	repo := new(MockCustomerRepository)
	h := NewRefundRecorder(repo, zap.NewNop())
	c, err := customer.NewCustomer("jo@example.com", "Jo")
	require.NoError(t, err)
	require.NoError(t, c.RecordPurchase(decimal.NewFromInt(100), time.Now()))

	repo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	repo.On("Save", mock.Anything, c).Return(nil)

	require.NoError(t, h.Handle(context.Background(), &order.OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderRefunded, order.AggregateTypeOrder, uuid.New()),
		CustomerID:      c.ID,
		Amount:          decimal.NewFromInt(30),
	}))
	assert.True(t, c.TotalSpent.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, []string{order.EventTypeOrderRefunded}, h.EventTypes())
}
