package handler

import (
	"context"

	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	billingapp "github.com/inkthread/storefront/internal/application/billing"
	campaignapp "github.com/inkthread/storefront/internal/application/campaign"
	catalogapp "github.com/inkthread/storefront/internal/application/catalog"
	"github.com/inkthread/storefront/internal/application/identity"
	orderapp "github.com/inkthread/storefront/internal/application/order"
	pricingapp "github.com/inkthread/storefront/internal/application/pricing"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*identity.RefreshTokenResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.RefreshTokenResult), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*identity.AdminInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminInfo), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

type MockCampaignService struct {
	mock.Mock
}

func (m *MockCampaignService) Create(ctx context.Context, req campaignapp.CreateCampaignRequest, admin bool) (*campaignapp.CreateCampaignResponse, error) {
	args := m.Called(ctx, req, admin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaignapp.CreateCampaignResponse), args.Error(1)
}

func (m *MockCampaignService) GetPublic(ctx context.Context, slug string) (*campaignapp.CampaignResponse, error) {
	return m.campaign(m.Called(ctx, slug))
}

func (m *MockCampaignService) Get(ctx context.Context, slug string) (*campaignapp.CampaignResponse, error) {
	return m.campaign(m.Called(ctx, slug))
}

func (m *MockCampaignService) List(ctx context.Context, filter campaignapp.CampaignListFilter) (*shared.Paginated[campaignapp.CampaignResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[campaignapp.CampaignResponse]), args.Error(1)
}

func (m *MockCampaignService) Update(ctx context.Context, slug string, req campaignapp.UpdateCampaignRequest, admin bool) (*campaignapp.CampaignResponse, error) {
	return m.campaign(m.Called(ctx, slug, req, admin))
}

func (m *MockCampaignService) PlaceOrder(ctx context.Context, slug string, req campaignapp.PlaceOrderRequest) (*campaignapp.PlaceOrderResponse, error) {
	args := m.Called(ctx, slug, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaignapp.PlaceOrderResponse), args.Error(1)
}

func (m *MockCampaignService) ListOrders(ctx context.Context, slug string, filter campaignapp.CampaignOrderListFilter) (*shared.Paginated[campaignapp.CampaignOrderResponse], error) {
	args := m.Called(ctx, slug, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[campaignapp.CampaignOrderResponse]), args.Error(1)
}

func (m *MockCampaignService) Pay(ctx context.Context, slug string) (*campaignapp.PayResponse, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaignapp.PayResponse), args.Error(1)
}

func (m *MockCampaignService) Stats(ctx context.Context, slug string) (*campaignapp.StatsResponse, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaignapp.StatsResponse), args.Error(1)
}

func (m *MockCampaignService) End(ctx context.Context, slug string) (*campaignapp.CampaignResponse, error) {
	return m.campaign(m.Called(ctx, slug))
}

func (m *MockCampaignService) Cancel(ctx context.Context, slug string, req campaignapp.CancelCampaignRequest) (*campaignapp.CampaignResponse, error) {
	return m.campaign(m.Called(ctx, slug, req))
}

func (m *MockCampaignService) OrderSheet(ctx context.Context, slug string) ([]byte, string, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockCampaignService) campaign(args mock.Arguments) (*campaignapp.CampaignResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaignapp.CampaignResponse), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, req orderapp.CheckoutRequest) (*orderapp.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) Lookup(ctx context.Context, req orderapp.LookupRequest) (*orderapp.OrderStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderStatusResponse), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, filter orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[orderapp.OrderResponse]), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *MockOrderService) Refund(ctx context.Context, id uuid.UUID, req orderapp.RefundRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *MockOrderService) PackingSlip(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockOrderService) order(args mock.Arguments) (*orderapp.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderResponse), args.Error(1)
}

type MockArtworkService struct {
	mock.Mock
}

func (m *MockArtworkService) Upload(ctx context.Context, in artworkapp.UploadInput) (*artworkapp.ArtworkResponse, error) {
	return m.artwork(m.Called(ctx, in))
}

func (m *MockArtworkService) RequestUpload(ctx context.Context, req artworkapp.PresignRequest) (*artworkapp.PresignResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artworkapp.PresignResponse), args.Error(1)
}

func (m *MockArtworkService) ConfirmUpload(ctx context.Context, id uuid.UUID) (*artworkapp.ArtworkResponse, error) {
	return m.artwork(m.Called(ctx, id))
}

func (m *MockArtworkService) Get(ctx context.Context, id uuid.UUID) (*artworkapp.ArtworkResponse, error) {
	return m.artwork(m.Called(ctx, id))
}

func (m *MockArtworkService) RequestVectorization(ctx context.Context, id uuid.UUID) (*artworkapp.ArtworkResponse, error) {
	return m.artwork(m.Called(ctx, id))
}

func (m *MockArtworkService) Generate(ctx context.Context, req artworkapp.GenerateRequest) (*artworkapp.ArtworkResponse, error) {
	return m.artwork(m.Called(ctx, req))
}

func (m *MockArtworkService) ValidateTransforms(ctx context.Context, req artworkapp.ValidateTransformsRequest) (*artworkapp.ValidateTransformsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artworkapp.ValidateTransformsResponse), args.Error(1)
}

func (m *MockArtworkService) artwork(args mock.Arguments) (*artworkapp.ArtworkResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artworkapp.ArtworkResponse), args.Error(1)
}

type MockGarmentService struct {
	mock.Mock
}

func (m *MockGarmentService) ListPublic(ctx context.Context, filter catalogapp.GarmentListFilter) (*shared.Paginated[catalogapp.GarmentResponse], error) {
	return m.page(m.Called(ctx, filter))
}

func (m *MockGarmentService) GetPublic(ctx context.Context, id uuid.UUID) (*catalogapp.GarmentResponse, error) {
	return m.garment(m.Called(ctx, id))
}

func (m *MockGarmentService) List(ctx context.Context, filter catalogapp.GarmentListFilter) (*shared.Paginated[catalogapp.GarmentResponse], error) {
	return m.page(m.Called(ctx, filter))
}

func (m *MockGarmentService) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.GarmentResponse, error) {
	return m.garment(m.Called(ctx, id))
}

func (m *MockGarmentService) Create(ctx context.Context, req catalogapp.CreateGarmentRequest) (*catalogapp.GarmentResponse, error) {
	return m.garment(m.Called(ctx, req))
}

func (m *MockGarmentService) Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateGarmentRequest) (*catalogapp.GarmentResponse, error) {
	return m.garment(m.Called(ctx, id, req))
}

func (m *MockGarmentService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGarmentService) page(args mock.Arguments) (*shared.Paginated[catalogapp.GarmentResponse], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[catalogapp.GarmentResponse]), args.Error(1)
}

func (m *MockGarmentService) garment(args mock.Arguments) (*catalogapp.GarmentResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.GarmentResponse), args.Error(1)
}

type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.WebhookResult), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Quote(ctx context.Context, req pricingapp.QuoteRequest) (*pricing.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}
