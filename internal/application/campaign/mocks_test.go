package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

// MockCampaignRepository is a mock implementation of CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) FindBySlug(ctx context.Context, slug string) (*campaign.Campaign, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*campaign.Campaign, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) FindAll(ctx context.Context, filter shared.Filter) ([]campaign.Campaign, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCampaignRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]campaign.Campaign, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Save(ctx context.Context, c *campaign.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

// MockCampaignOrderRepository is a mock implementation of CampaignOrderRepository
type MockCampaignOrderRepository struct {
	mock.Mock
}

func (m *MockCampaignOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.CampaignOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.CampaignOrder), args.Error(1)
}

func (m *MockCampaignOrderRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*campaign.CampaignOrder, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.CampaignOrder), args.Error(1)
}

func (m *MockCampaignOrderRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]campaign.CampaignOrder, int64, error) {
	args := m.Called(ctx, campaignID, filter)
	return args.Get(0).([]campaign.CampaignOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignOrderRepository) FindAllByCampaign(ctx context.Context, campaignID uuid.UUID) ([]campaign.CampaignOrder, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]campaign.CampaignOrder), args.Error(1)
}

func (m *MockCampaignOrderRepository) ConfigsInUse(ctx context.Context, campaignID uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

func (m *MockCampaignOrderRepository) Save(ctx context.Context, o *campaign.CampaignOrder) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockCampaignOrderRepository) SaveBatch(ctx context.Context, orders []*campaign.CampaignOrder) error {
	return m.Called(ctx, orders).Error(0)
}

// MockGarmentRepository is a mock implementation of GarmentRepository
type MockGarmentRepository struct {
	mock.Mock
}

func (m *MockGarmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Garment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Garment), args.Error(1)
}

func (m *MockGarmentRepository) FindByStyleCode(ctx context.Context, styleCode string) (*catalog.Garment, error) {
	args := m.Called(ctx, styleCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Garment), args.Error(1)
}

func (m *MockGarmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Garment, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Garment), args.Error(1)
}

func (m *MockGarmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Garment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Garment), args.Error(1)
}

func (m *MockGarmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGarmentRepository) Save(ctx context.Context, g *catalog.Garment) error {
	return m.Called(ctx, g).Error(0)
}

func (m *MockGarmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

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

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*order.Order, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, req payment.PaymentIntentRequest) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPaymentGateway) CreateRefund(ctx context.Context, req payment.RefundRequest) (*payment.Refund, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockPaymentGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// MockTokenIssuer is a mock implementation of OrganizerTokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateOrganizerToken(campaignID uuid.UUID, slug string, deadline time.Time) (*auth.OrganizerToken, error) {
	args := m.Called(campaignID, slug, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.OrganizerToken), args.Error(1)
}

// MockRevoker is a mock implementation of SubjectRevoker
type MockRevoker struct {
	mock.Mock
}

func (m *MockRevoker) RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error {
	return m.Called(ctx, subject, ttl).Error(0)
}

// MockArtworkValidator is a mock implementation of ArtworkValidator
type MockArtworkValidator struct {
	mock.Mock
}

func (m *MockArtworkValidator) EnsureUsable(ctx context.Context, ids []uuid.UUID) error {
	return m.Called(ctx, ids).Error(0)
}

// MockOrderSheet is a mock implementation of OrderSheetRenderer
type MockOrderSheet struct {
	mock.Mock
}

func (m *MockOrderSheet) OrderSheet(ctx context.Context, c *campaign.Campaign, orders []campaign.CampaignOrder) ([]byte, error) {
	args := m.Called(ctx, c, orders)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

// fakeTxScope runs the function against the mock repositories
type fakeTxScope struct {
	repos *fakeTxRepos
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

type fakeTxRepos struct {
	campaigns      *MockCampaignRepository
	campaignOrders *MockCampaignOrderRepository
	orders         *MockOrderRepository
	customers      *MockCustomerRepository
}

func (r *fakeTxRepos) Campaigns() campaign.CampaignRepository           { return r.campaigns }
func (r *fakeTxRepos) CampaignOrders() campaign.CampaignOrderRepository { return r.campaignOrders }
func (r *fakeTxRepos) Orders() order.OrderRepository                    { return r.orders }
func (r *fakeTxRepos) Customers() customer.CustomerRepository           { return r.customers }
