package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	customerapp "github.com/inkthread/storefront/internal/application/customer"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
	"github.com/inkthread/storefront/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sort whitelists for list endpoints
var (
	CampaignSortFields      = []string{"slug", "name", "organizer_email", "deadline", "status"}
	CampaignOrderSortFields = []string{"participant_name", "participant_email", "size", "quantity", "status", "total"}
)

var (
	// ErrCampaignClosed is returned when a campaign no longer takes orders
	ErrCampaignClosed = shared.NewDomainError("CAMPAIGN_CLOSED", "This campaign is no longer accepting orders")
	// ErrDocumentsDisabled is returned when PDF rendering is not configured
	ErrDocumentsDisabled = shared.NewDomainError("SERVICE_UNAVAILABLE", "PDF documents are not available")

	errPaymentUnavailable = shared.NewDomainError("SERVICE_UNAVAILABLE", "Payment provider is unavailable, please try again")
)

const (
	maxSlugAttempts = 50
	sweepBatchSize  = 100
	refundReason    = "requested_by_customer"
)

// OrganizerTokenIssuer issues campaign-scoped organizer tokens
type OrganizerTokenIssuer interface {
	GenerateOrganizerToken(campaignID uuid.UUID, slug string, deadline time.Time) (*auth.OrganizerToken, error)
}

// SubjectRevoker revokes every token issued for a subject
type SubjectRevoker interface {
	RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error
}

// ArtworkValidator checks that referenced artwork exists and is uploaded
type ArtworkValidator interface {
	EnsureUsable(ctx context.Context, ids []uuid.UUID) error
}

// OrderSheetRenderer renders a campaign's order roster as PDF
type OrderSheetRenderer interface {
	OrderSheet(ctx context.Context, c *campaign.Campaign, orders []campaign.CampaignOrder) ([]byte, error)
}

// CampaignService handles group-order campaigns, their participant orders
// and organizer payments.
type CampaignService struct {
	campaignRepo   campaign.CampaignRepository
	orderRepo      campaign.CampaignOrderRepository
	garmentRepo    catalog.GarmentRepository
	customerRepo   customer.CustomerRepository
	calculator     *pricing.QuoteCalculator
	gateway        payment.PaymentGateway
	tokens         OrganizerTokenIssuer
	txScope        TransactionScope
	artworks       ArtworkValidator
	revoker        SubjectRevoker
	tokenGrace     time.Duration
	documents      OrderSheetRenderer
	currency       string
	eventPublisher shared.EventPublisher
	metrics        *telemetry.StoreMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(
	campaignRepo campaign.CampaignRepository,
	orderRepo campaign.CampaignOrderRepository,
	garmentRepo catalog.GarmentRepository,
	customerRepo customer.CustomerRepository,
	calculator *pricing.QuoteCalculator,
	gateway payment.PaymentGateway,
	tokens OrganizerTokenIssuer,
	txScope TransactionScope,
	logger *zap.Logger,
) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		campaignRepo: campaignRepo,
		orderRepo:    orderRepo,
		garmentRepo:  garmentRepo,
		customerRepo: customerRepo,
		calculator:   calculator,
		gateway:      gateway,
		tokens:       tokens,
		txScope:      txScope,
		currency:     "usd",
		logger:       logger,
		now:          time.Now,
	}
}

// SetArtworkValidator sets the artwork existence check
func (s *CampaignService) SetArtworkValidator(v ArtworkValidator) {
	s.artworks = v
}

// SetRevoker sets where organizer tokens are revoked when a campaign is
// cancelled. grace is how long tokens outlive the deadline.
func (s *CampaignService) SetRevoker(revoker SubjectRevoker, grace time.Duration) {
	s.revoker = revoker
	s.tokenGrace = grace
}

// SetDocuments sets the order sheet renderer
func (s *CampaignService) SetDocuments(documents OrderSheetRenderer) {
	s.documents = documents
}

// SetCurrency sets the currency payment intents are created in
func (s *CampaignService) SetCurrency(currency string) {
	if c := strings.ToLower(strings.TrimSpace(currency)); c != "" {
		s.currency = c
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CampaignService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *CampaignService) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// Create creates a campaign and issues the organizer token. Only admins
// may set notes.
func (s *CampaignService) Create(ctx context.Context, req CreateCampaignRequest, admin bool) (resp *CreateCampaignResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "create")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if req.Notes != "" && !admin {
		return nil, shared.ErrForbidden
	}
	placements, artworkIDs := toPlacements(req.Artwork)
	if err := s.ensureArtwork(ctx, artworkIDs); err != nil {
		return nil, err
	}

	expected := req.ExpectedQuantity
	if expected <= 0 {
		expected = campaign.DefaultExpectedQuantity
	}
	configs, err := s.buildGarmentConfigs(ctx, req.GarmentConfigs, placementSpecs(placements), expected, nil)
	if err != nil {
		return nil, err
	}

	slug, err := s.resolveSlug(ctx, req.Slug, req.Name)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCampaign, slug)

	now := s.now()
	c, err := campaign.NewCampaign(campaign.NewCampaignInput{
		Slug:             slug,
		Name:             req.Name,
		Description:      req.Description,
		OrganizerName:    req.OrganizerName,
		OrganizerEmail:   req.OrganizerEmail,
		Deadline:         req.Deadline,
		PaymentStyle:     campaign.PaymentStyle(req.PaymentStyle),
		ExpectedQuantity: expected,
		Artwork:          placements,
		GarmentConfigs:   configs,
	}, now)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		if err := c.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.GenerateOrganizerToken(c.ID, c.Slug, c.Deadline)
	if err != nil {
		return nil, fmt.Errorf("issue organizer token: %w", err)
	}
	if err := s.campaignRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publishCampaign(ctx, c)

	s.logger.Info("Campaign created",
		zap.String("slug", c.Slug),
		zap.String("payment_style", string(c.PaymentStyle)),
		zap.Time("deadline", c.Deadline))
	return &CreateCampaignResponse{
		Campaign:                ToCampaignResponse(c, now),
		OrganizerToken:          token.Token,
		OrganizerTokenExpiresAt: token.ExpiresAt,
	}, nil
}

// GetPublic returns the participant view of a campaign
func (s *CampaignService) GetPublic(ctx context.Context, slug string) (*CampaignResponse, error) {
	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := ToPublicCampaignResponse(c, s.now())
	return &resp, nil
}

// Get returns the organizer view of a campaign
func (s *CampaignService) Get(ctx context.Context, slug string) (*CampaignResponse, error) {
	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := ToCampaignResponse(c, s.now())
	return &resp, nil
}

// List returns campaigns for admins
func (s *CampaignService) List(ctx context.Context, filter CampaignListFilter) (*shared.Paginated[CampaignResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
	}.Normalize(CampaignSortFields...)

	if filter.Status != "" {
		status := campaign.Status(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown campaign status: "+filter.Status)
		}
		f.Filters["status"] = status.String()
	}
	if filter.PaymentStyle != "" {
		style := campaign.PaymentStyle(filter.PaymentStyle)
		if !style.IsValid() {
			return nil, shared.NewDomainError("INVALID_PAYMENT_STYLE", "Unknown payment style: "+filter.PaymentStyle)
		}
		f.Filters["payment_style"] = string(style)
	}

	var (
		campaigns []campaign.Campaign
		total     int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaigns, err = s.campaignRepo.FindAll(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.campaignRepo.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		items[i] = ToCampaignResponse(&campaigns[i], now)
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Update edits an active campaign. Garment configs that have orders cannot
// be removed, and only admins may change notes.
func (s *CampaignService) Update(ctx context.Context, slug string, req UpdateCampaignRequest, admin bool) (*CampaignResponse, error) {
	if req.Notes != nil && !admin {
		return nil, shared.ErrForbidden
	}
	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if req.Name != nil || req.Description != nil || req.Deadline != nil {
		name, description, deadline := c.Name, c.Description, c.Deadline
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if req.Deadline != nil {
			deadline = *req.Deadline
		}
		if err := c.UpdateDetails(name, description, deadline, now); err != nil {
			return nil, err
		}
	}

	if len(req.Artwork) > 0 {
		placements, artworkIDs := toPlacements(req.Artwork)
		if err := s.ensureArtwork(ctx, artworkIDs); err != nil {
			return nil, err
		}
		if err := c.SetArtwork(placements); err != nil {
			return nil, err
		}
	}

	if len(req.GarmentConfigs) > 0 {
		configs, err := s.buildGarmentConfigs(ctx, req.GarmentConfigs, c.LocationSpecs(), c.ExpectedQuantity, c.GarmentConfigs)
		if err != nil {
			return nil, err
		}
		inUse, err := s.orderRepo.ConfigsInUse(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if err := c.SetGarmentConfigs(configs, inUse); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		if err := c.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.campaignRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publishCampaign(ctx, c)
	resp := ToCampaignResponse(c, now)
	return &resp, nil
}

// PlaceOrder records a participant's order. In everyone_pays campaigns a
// payment intent is created and its client secret returned.
func (s *CampaignService) PlaceOrder(ctx context.Context, slug string, req PlaceOrderRequest) (resp *PlaceOrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "place_order", telemetry.SpanAttrCampaign, slug)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !c.AcceptingOrders(now) {
		return nil, ErrCampaignClosed
	}
	size, ok := catalog.ParseSize(req.Size)
	if !ok {
		return nil, shared.NewDomainError("INVALID_SIZE", "Unknown size: "+req.Size)
	}

	participant, err := customerapp.Upsert(ctx, s.customerRepo, customerapp.Contact{
		Email: req.ParticipantEmail,
		Name:  req.ParticipantName,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, participant.GetDomainEvents())
	participant.ClearDomainEvents()

	o, err := c.PlaceOrder(campaign.PlaceOrderInput{
		ParticipantName:  req.ParticipantName,
		ParticipantEmail: participant.Email,
		CustomerID:       &participant.ID,
		GarmentConfigID:  req.GarmentConfigID,
		Color:            req.Color,
		Size:             size,
		Quantity:         req.Quantity,
	}, now)
	if err != nil {
		return nil, err
	}

	resp = &PlaceOrderResponse{}
	if o.NeedsPayment() {
		intent, err := s.gateway.CreatePaymentIntent(ctx, payment.PaymentIntentRequest{
			AmountCents:  valueobject.ToCents(o.Total),
			Currency:     s.currency,
			ReceiptEmail: o.ParticipantEmail,
			Description:  fmt.Sprintf("%s: %d x %s", c.Name, o.Quantity, o.GarmentName),
			Metadata: map[string]string{
				payment.MetadataKind:            payment.KindCampaignOrder.String(),
				payment.MetadataCampaignID:      c.ID.String(),
				payment.MetadataCampaignSlug:    c.Slug,
				payment.MetadataCampaignOrderID: o.ID.String(),
			},
			IdempotencyKey: "campaign-order-" + o.ID.String(),
		})
		if err != nil {
			s.logger.Error("Failed to create campaign order payment intent",
				zap.String("slug", c.Slug),
				zap.Error(err))
			return nil, errPaymentUnavailable
		}
		if err := o.AttachPaymentIntent(intent.ID); err != nil {
			return nil, err
		}
		resp.PaymentIntentID = intent.ID
		resp.ClientSecret = intent.ClientSecret
		telemetry.SetAttributes(span, telemetry.SpanAttrIntentID, intent.ID)
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.CampaignOrders().Save(ctx, o); err != nil {
			return err
		}
		return repos.Campaigns().Save(ctx, c)
	})
	if err != nil {
		if resp.PaymentIntentID != "" {
			s.cancelIntent(ctx, resp.PaymentIntentID)
		}
		return nil, err
	}
	s.publish(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()
	s.metrics.RecordCampaignOrder(ctx, string(c.PaymentStyle))

	resp.Order = ToCampaignOrderResponse(o)
	return resp, nil
}

// ListOrders returns a page of a campaign's participant orders
func (s *CampaignService) ListOrders(ctx context.Context, slug string, filter CampaignOrderListFilter) (*shared.Paginated[CampaignOrderResponse], error) {
	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}.Normalize(CampaignOrderSortFields...)
	if filter.Status != "" {
		status := campaign.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+filter.Status)
		}
		f.Filters["status"] = string(status)
	}
	if filter.GarmentConfigID != nil {
		f.Filters["garment_config_id"] = *filter.GarmentConfigID
	}

	orders, total, err := s.orderRepo.FindByCampaign(ctx, c.ID, f)
	if err != nil {
		return nil, err
	}
	items := make([]CampaignOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToCampaignOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Pay creates the organizer's payment intent for every confirmed order and
// closes the campaign. Calling it again for the same amount returns the
// same intent.
func (s *CampaignService) Pay(ctx context.Context, slug string) (resp *PayResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "pay", telemetry.SpanAttrCampaign, slug)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.FindAllByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	amount := campaign.PayableTotal(orders)
	reuse, err := c.BeginOrganizerPayment(amount)
	if err != nil {
		return nil, err
	}

	closed := false
	if c.Status == campaign.StatusActive {
		if err := c.Close(s.now()); err != nil {
			return nil, err
		}
		closed = true
	}

	cents := valueobject.ToCents(amount)
	intent, err := s.gateway.CreatePaymentIntent(ctx, payment.PaymentIntentRequest{
		AmountCents:  cents,
		Currency:     s.currency,
		ReceiptEmail: c.OrganizerEmail,
		Description:  "Group order: " + c.Name,
		Metadata: map[string]string{
			payment.MetadataKind:         payment.KindCampaign.String(),
			payment.MetadataCampaignID:   c.ID.String(),
			payment.MetadataCampaignSlug: c.Slug,
		},
		IdempotencyKey: fmt.Sprintf("campaign-%s-%d", c.ID, cents),
	})
	if err != nil {
		s.logger.Error("Failed to create organizer payment intent",
			zap.String("slug", c.Slug),
			zap.Error(err))
		return nil, errPaymentUnavailable
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrIntentID, intent.ID,
		telemetry.SpanAttrAmountCents, cents)

	previous := ""
	if c.PaymentStatus == campaign.PaymentStatusPending && c.PaymentIntentID != intent.ID {
		previous = c.PaymentIntentID
		reuse = false
	}
	if err := c.MarkPaymentPending(intent.ID, amount); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	if previous != "" {
		s.cancelIntent(ctx, previous)
	}
	s.publishCampaign(ctx, c)
	if closed {
		s.metrics.RecordCampaignTransition(ctx, campaign.StatusClosed.String())
	}

	return &PayResponse{
		Amount:          amount,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Reused:          reuse,
	}, nil
}

// Stats summarizes a campaign's orders for the organizer dashboard
func (s *CampaignService) Stats(ctx context.Context, slug string) (*StatsResponse, error) {
	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.FindAllByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{
		Slug:          c.Slug,
		Status:        c.Status.String(),
		PaymentStyle:  string(c.PaymentStyle),
		PaymentStatus: string(c.PaymentStatus),
		Deadline:      c.Deadline,
		Stats:         campaign.ComputeStats(c, orders),
	}, nil
}

// End closes an active campaign ahead of its deadline
func (s *CampaignService) End(ctx context.Context, slug string) (resp *CampaignResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "end", telemetry.SpanAttrCampaign, slug)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.closeCampaign(ctx, c, now); err != nil {
		return nil, err
	}
	out := ToCampaignResponse(c, now)
	return &out, nil
}

// CloseExpired ends every active campaign whose deadline has passed. A
// failing campaign does not stop the others.
func (s *CampaignService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.campaignRepo.FindExpired(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	var (
		closed int
		errs   []error
	)
	for i := range expired {
		c := &expired[i]
		if err := s.closeCampaign(ctx, c, now); err != nil {
			s.logger.Error("Failed to close expired campaign",
				zap.String("slug", c.Slug),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("campaign %s: %w", c.Slug, err))
			continue
		}
		closed++
	}
	return closed, errors.Join(errs...)
}

// closeCampaign closes c. In everyone_pays campaigns unpaid orders are
// cancelled, and paid orders are finalized into a production order.
func (s *CampaignService) closeCampaign(ctx context.Context, c *campaign.Campaign, now time.Time) error {
	var (
		staleIntents []string
		production   *order.Order
		events       []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := c.Close(now); err != nil {
			return err
		}
		if c.PaymentStyle == campaign.PaymentStyleEveryonePays {
			orders, err := repos.CampaignOrders().FindAllByCampaign(ctx, c.ID)
			if err != nil {
				return err
			}
			var cancelled []*campaign.CampaignOrder
			hasPaid := false
			for i := range orders {
				o := &orders[i]
				switch o.Status {
				case campaign.OrderStatusPendingPayment:
					if err := o.Cancel(now); err != nil {
						return err
					}
					if o.PaymentIntentID != "" {
						staleIntents = append(staleIntents, o.PaymentIntentID)
					}
					cancelled = append(cancelled, o)
				case campaign.OrderStatusPaid:
					hasPaid = true
				}
			}
			if len(cancelled) > 0 {
				if err := repos.CampaignOrders().SaveBatch(ctx, cancelled); err != nil {
					return err
				}
			}
			if hasPaid {
				production, events, err = s.finalize(ctx, repos, c, orders, paidTotal(orders), now)
				if err != nil {
					return err
				}
			}
		}
		return repos.Campaigns().Save(ctx, c)
	})
	if err != nil {
		return err
	}

	for _, id := range staleIntents {
		s.cancelIntent(ctx, id)
	}
	s.publish(ctx, events)
	s.publishCampaign(ctx, c)
	s.metrics.RecordCampaignTransition(ctx, campaign.StatusClosed.String())
	if production != nil {
		s.recordFinalized(ctx, c, production)
	}
	s.logger.Info("Campaign closed",
		zap.String("slug", c.Slug),
		zap.String("status", c.Status.String()),
		zap.Int("cancelled_intents", len(staleIntents)))
	return nil
}

// finalize turns the paid orders of a closed campaign into one paid
// production order and completes the campaign. It returns the order and
// the events to publish once the transaction commits.
func (s *CampaignService) finalize(
	ctx context.Context,
	repos TransactionalRepositories,
	c *campaign.Campaign,
	orders []campaign.CampaignOrder,
	amount decimal.Decimal,
	now time.Time,
) (*order.Order, []shared.DomainEvent, error) {
	lines := campaign.ProductionLines(c, orders)
	if len(lines) == 0 {
		return nil, nil, nil
	}
	items := make([]order.Item, 0, len(lines))
	for _, line := range lines {
		item, err := order.NewItem(uuid.Nil, line.GarmentID, line.GarmentName, line.StyleCode, line.Color, line.Sizes, line.Total)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, *item)
	}
	locations := make([]order.PrintLocation, len(c.Artwork))
	for i, p := range c.Artwork {
		locations[i] = order.PrintLocation{
			Location:      p.Location,
			ArtworkFileID: p.ArtworkFileID,
			InkColors:     p.InkColors,
			FullColor:     p.FullColor,
			Transform:     p.Transform,
		}
	}

	organizer, err := customerapp.Upsert(ctx, repos.Customers(), customerapp.Contact{
		Email: c.OrganizerEmail,
		Name:  c.OrganizerName,
	})
	if err != nil {
		return nil, nil, err
	}
	number, err := repos.Orders().GenerateOrderNumber(ctx)
	if err != nil {
		return nil, nil, err
	}
	production, err := order.NewCampaignProductionOrder(number, c.ID, order.Customer{
		ID:    organizer.ID,
		Email: organizer.Email,
		Name:  c.OrganizerName,
	}, items, locations, amount)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Orders().Save(ctx, production); err != nil {
		return nil, nil, err
	}
	if err := c.Complete(production.ID, now); err != nil {
		return nil, nil, err
	}

	events := append(organizer.GetDomainEvents(), production.GetDomainEvents()...)
	organizer.ClearDomainEvents()
	production.ClearDomainEvents()
	return production, events, nil
}

// Cancel cancels a campaign. Participant payments (everyone_pays) or the
// organizer payment are refunded first; if any refund fails the campaign
// stays as it is and the refunds that went through are kept.
func (s *CampaignService) Cancel(ctx context.Context, slug string, req CancelCampaignRequest) (resp *CampaignResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "cancel", telemetry.SpanAttrCampaign, slug)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.FindAllByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := c.Cancel(req.Reason, now); err != nil {
		return nil, err
	}

	var (
		refunded      []*campaign.CampaignOrder
		cancelled     []*campaign.CampaignOrder
		staleIntents  []string
		refundedCents int64
		refundErrs    []error
	)
	refund := func(intentID, key string) bool {
		r, err := s.gateway.CreateRefund(ctx, payment.RefundRequest{
			PaymentIntentID: intentID,
			Reason:          refundReason,
			IdempotencyKey:  key,
		})
		if err != nil {
			refundErrs = append(refundErrs, fmt.Errorf("refund %s: %w", intentID, err))
			return false
		}
		refundedCents += r.AmountCents
		return true
	}

	organizerRefunded := false
	if c.PaymentStyle == campaign.PaymentStyleOrganizerPays {
		switch c.PaymentStatus {
		case campaign.PaymentStatusPaid:
			organizerRefunded = refund(c.PaymentIntentID, "campaign-refund-"+c.ID.String())
		case campaign.PaymentStatusPending:
			staleIntents = append(staleIntents, c.PaymentIntentID)
		}
	}
	for i := range orders {
		o := &orders[i]
		switch o.Status {
		case campaign.OrderStatusPaid:
			if c.PaymentStyle == campaign.PaymentStyleOrganizerPays {
				if !organizerRefunded {
					continue
				}
			} else if !refund(o.PaymentIntentID, "campaign-order-refund-"+o.ID.String()) {
				continue
			}
			if err := o.MarkRefunded(); err != nil {
				return nil, err
			}
			refunded = append(refunded, o)
		case campaign.OrderStatusPendingPayment, campaign.OrderStatusConfirmed:
			if err := o.Cancel(now); err != nil {
				return nil, err
			}
			if o.PaymentIntentID != "" && c.PaymentStyle == campaign.PaymentStyleEveryonePays {
				staleIntents = append(staleIntents, o.PaymentIntentID)
			}
			cancelled = append(cancelled, o)
		}
	}

	if len(refundErrs) > 0 {
		if len(refunded) > 0 {
			if err := s.orderRepo.SaveBatch(ctx, refunded); err != nil {
				s.logger.Error("Failed to record campaign refunds", zap.String("slug", c.Slug), zap.Error(err))
			}
		}
		s.metrics.RecordRefund(ctx, refundedCents)
		s.logger.Error("Campaign cancellation stopped by failed refunds",
			zap.String("slug", c.Slug),
			zap.Error(errors.Join(refundErrs...)))
		return nil, shared.NewDomainError("PAYMENT_FAILED", "Some payments could not be refunded, please retry")
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if changed := append(refunded, cancelled...); len(changed) > 0 {
			if err := repos.CampaignOrders().SaveBatch(ctx, changed); err != nil {
				return err
			}
		}
		return repos.Campaigns().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	for _, id := range staleIntents {
		s.cancelIntent(ctx, id)
	}
	s.revokeOrganizer(ctx, c, now)
	s.publishCampaign(ctx, c)
	if refundedCents > 0 {
		s.metrics.RecordRefund(ctx, refundedCents)
	}
	s.metrics.RecordCampaignTransition(ctx, campaign.StatusCancelled.String())
	s.logger.Info("Campaign cancelled",
		zap.String("slug", c.Slug),
		zap.Int("refunded_orders", len(refunded)),
		zap.Int("cancelled_orders", len(cancelled)))

	out := ToCampaignResponse(c, now)
	return &out, nil
}

// OrderSheet renders the campaign roster as PDF
func (s *CampaignService) OrderSheet(ctx context.Context, slug string) ([]byte, string, error) {
	if s.documents == nil {
		return nil, "", ErrDocumentsDisabled
	}
	c, err := s.campaignRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	orders, err := s.orderRepo.FindAllByCampaign(ctx, c.ID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.documents.OrderSheet(ctx, c, orders)
	s.metrics.RecordDocument(ctx, "order_sheet", telemetry.OutcomeOf(err))
	if err != nil {
		return nil, "", err
	}
	return pdf, "order-sheet-" + c.Slug + ".pdf", nil
}

// CountActive returns the number of campaigns accepting orders
func (s *CampaignService) CountActive(ctx context.Context) (int64, error) {
	return s.campaignRepo.Count(ctx, shared.Filter{
		Filters: map[string]any{"status": campaign.StatusActive.String()},
	})
}

// HandleParticipantPaymentSucceeded marks a participant's order paid
func (s *CampaignService) HandleParticipantPaymentSucceeded(ctx context.Context, intent *payment.PaymentIntent) error {
	o, err := s.findOrderForIntent(ctx, intent)
	if err != nil {
		return err
	}
	if o.Status == campaign.OrderStatusCancelled {
		return s.refundLatePayment(ctx, o, intent)
	}
	if err := o.MarkPaid(intent.ID, s.now()); err != nil {
		s.metrics.RecordPayment(ctx, payment.KindCampaignOrder.String(), telemetry.OutcomeRejected)
		s.logger.Error("Payment received for a campaign order that cannot be paid",
			zap.String("campaign_order_id", o.ID.String()),
			zap.String("status", string(o.Status)),
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
		return nil
	}
	if len(o.GetDomainEvents()) == 0 {
		return nil
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return err
	}
	s.publish(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()
	s.metrics.RecordPayment(ctx, payment.KindCampaignOrder.String(), telemetry.OutcomeSuccess)
	s.metrics.RecordRevenue(ctx, payment.KindCampaignOrder.String(), valueobject.ToCents(o.Total))
	s.logger.Info("Campaign order paid",
		zap.String("campaign_order_id", o.ID.String()),
		zap.String("payment_intent_id", intent.ID))
	return nil
}

// refundLatePayment returns a participant payment that succeeded after the
// order had been cancelled by the sweep or the campaign ending.
func (s *CampaignService) refundLatePayment(ctx context.Context, o *campaign.CampaignOrder, intent *payment.PaymentIntent) error {
	r, err := s.gateway.CreateRefund(ctx, payment.RefundRequest{
		PaymentIntentID: intent.ID,
		Reason:          refundReason,
		IdempotencyKey:  "campaign-order-refund-" + o.ID.String(),
	})
	if err != nil {
		s.logger.Error("Failed to refund payment for a cancelled campaign order",
			zap.String("campaign_order_id", o.ID.String()),
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
		return err
	}
	if err := o.RefundLatePayment(intent.ID); err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return err
	}
	s.metrics.RecordPayment(ctx, payment.KindCampaignOrder.String(), telemetry.OutcomeRejected)
	s.metrics.RecordRefund(ctx, r.AmountCents)
	s.logger.Warn("Refunded payment for a cancelled campaign order",
		zap.String("campaign_order_id", o.ID.String()),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount_cents", r.AmountCents))
	return nil
}

// HandleParticipantPaymentFailed records a failed participant payment.
// The order stays pending so the participant can retry.
func (s *CampaignService) HandleParticipantPaymentFailed(ctx context.Context, intent *payment.PaymentIntent, reason string) error {
	o, err := s.findOrderForIntent(ctx, intent)
	if err != nil {
		return err
	}
	s.metrics.RecordPayment(ctx, payment.KindCampaignOrder.String(), telemetry.OutcomeFailure)
	s.logger.Warn("Campaign order payment failed",
		zap.String("campaign_order_id", o.ID.String()),
		zap.String("payment_intent_id", intent.ID),
		zap.String("reason", reason))
	return nil
}

// HandleOrganizerPaymentSucceeded records the organizer's payment, marks
// every confirmed order paid and finalizes the campaign.
func (s *CampaignService) HandleOrganizerPaymentSucceeded(ctx context.Context, intent *payment.PaymentIntent) (err error) {
	if intent == nil {
		return payment.ErrMalformedWebhookEvent
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "organizer_paid", telemetry.SpanAttrIntentID, intent.ID)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	c, err := s.findCampaignForIntent(ctx, intent)
	if err != nil {
		return err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCampaign, c.Slug)
	if c.PaymentStatus == campaign.PaymentStatusPaid && c.PaymentIntentID == intent.ID {
		return nil
	}
	if c.Status == campaign.StatusCancelled || c.Status == campaign.StatusCompleted {
		s.metrics.RecordPayment(ctx, payment.KindCampaign.String(), telemetry.OutcomeRejected)
		s.logger.Error("Organizer payment received for a finished campaign",
			zap.String("slug", c.Slug),
			zap.String("status", c.Status.String()),
			zap.String("payment_intent_id", intent.ID))
		return nil
	}

	now := s.now()
	if err := c.MarkPaid(intent.ID, valueobject.FromCents(intent.AmountCents), now); err != nil {
		s.metrics.RecordPayment(ctx, payment.KindCampaign.String(), telemetry.OutcomeRejected)
		s.logger.Error("Organizer payment rejected",
			zap.String("slug", c.Slug),
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
		return nil
	}

	var (
		production *order.Order
		events     []shared.DomainEvent
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := repos.CampaignOrders().FindAllByCampaign(ctx, c.ID)
		if err != nil {
			return err
		}
		var covered []*campaign.CampaignOrder
		for i := range orders {
			o := &orders[i]
			if o.Status != campaign.OrderStatusConfirmed {
				continue
			}
			if err := o.MarkPaid(intent.ID, now); err != nil {
				return err
			}
			// participants did not pay themselves
			o.ClearDomainEvents()
			covered = append(covered, o)
		}
		if len(covered) > 0 {
			if err := repos.CampaignOrders().SaveBatch(ctx, covered); err != nil {
				return err
			}
		}
		if c.Status == campaign.StatusClosed {
			production, events, err = s.finalize(ctx, repos, c, orders, c.AmountPaid, now)
			if err != nil {
				return err
			}
		}
		return repos.Campaigns().Save(ctx, c)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events)
	s.publishCampaign(ctx, c)
	s.metrics.RecordPayment(ctx, payment.KindCampaign.String(), telemetry.OutcomeSuccess)
	s.metrics.RecordRevenue(ctx, payment.KindCampaign.String(), intent.AmountCents)
	if production != nil {
		s.recordFinalized(ctx, c, production)
	}
	s.logger.Info("Organizer payment received",
		zap.String("slug", c.Slug),
		zap.String("payment_intent_id", intent.ID),
		zap.String("amount", c.AmountPaid.String()))
	return nil
}

// HandleOrganizerPaymentFailed returns the campaign to unpaid so the
// organizer can retry.
func (s *CampaignService) HandleOrganizerPaymentFailed(ctx context.Context, intent *payment.PaymentIntent, reason string) error {
	c, err := s.findCampaignForIntent(ctx, intent)
	if err != nil {
		return err
	}
	s.metrics.RecordPayment(ctx, payment.KindCampaign.String(), telemetry.OutcomeFailure)
	s.logger.Warn("Organizer payment failed",
		zap.String("slug", c.Slug),
		zap.String("payment_intent_id", intent.ID),
		zap.String("reason", reason))

	version := c.Version
	c.MarkPaymentFailed(intent.ID)
	if c.Version == version {
		return nil
	}
	return s.campaignRepo.Save(ctx, c)
}

func (s *CampaignService) findOrderForIntent(ctx context.Context, intent *payment.PaymentIntent) (*campaign.CampaignOrder, error) {
	if intent == nil {
		return nil, payment.ErrMalformedWebhookEvent
	}
	if raw := intent.Metadata[payment.MetadataCampaignOrderID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad campaign order id %q", payment.ErrMalformedWebhookEvent, raw)
		}
		o, err := s.orderRepo.FindByID(ctx, id)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return o, err
		}
	}
	return s.orderRepo.FindByPaymentIntentID(ctx, intent.ID)
}

func (s *CampaignService) findCampaignForIntent(ctx context.Context, intent *payment.PaymentIntent) (*campaign.Campaign, error) {
	if intent == nil {
		return nil, payment.ErrMalformedWebhookEvent
	}
	if raw := intent.Metadata[payment.MetadataCampaignID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad campaign id %q", payment.ErrMalformedWebhookEvent, raw)
		}
		c, err := s.campaignRepo.FindByID(ctx, id)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return c, err
		}
	}
	return s.campaignRepo.FindByPaymentIntentID(ctx, intent.ID)
}

// resolveSlug validates a requested slug, or derives a free one from name
func (s *CampaignService) resolveSlug(ctx context.Context, requested, name string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		if err := campaign.ValidateSlug(requested); err != nil {
			return "", err
		}
		taken, err := s.campaignRepo.ExistsBySlug(ctx, requested)
		if err != nil {
			return "", err
		}
		if taken {
			return "", shared.NewDomainError("SLUG_TAKEN", "This campaign URL is already taken")
		}
		return requested, nil
	}

	base := campaign.Slugify(name)
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := campaign.SlugCandidate(base, n)
		taken, err := s.campaignRepo.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", shared.NewDomainError("SLUG_TAKEN", "Could not find a free campaign URL, please choose one")
}

// buildGarmentConfigs resolves garments from the catalog. A missing price
// is the suggested price for the placements; configs for a garment already
// offered keep their ID so existing orders still match.
func (s *CampaignService) buildGarmentConfigs(
	ctx context.Context,
	reqs []GarmentConfigRequest,
	specs []pricing.LocationSpec,
	expectedQty int,
	existing []campaign.GarmentConfig,
) ([]campaign.GarmentConfig, error) {
	ids := make([]uuid.UUID, len(reqs))
	for i, r := range reqs {
		ids[i] = r.GarmentID
	}
	garments, err := s.garmentRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Garment, len(garments))
	for i := range garments {
		byID[garments[i].ID] = &garments[i]
	}
	previous := make(map[uuid.UUID]uuid.UUID, len(existing))
	for _, cfg := range existing {
		previous[cfg.GarmentID] = cfg.ID
	}

	configs := make([]campaign.GarmentConfig, 0, len(reqs))
	for _, r := range reqs {
		g, ok := byID[r.GarmentID]
		if !ok {
			return nil, shared.NewDomainError("GARMENT_UNAVAILABLE", "Garment is not available: "+r.GarmentID.String())
		}
		sizes := make([]catalog.Size, 0, len(r.Sizes))
		for _, raw := range r.Sizes {
			size, ok := catalog.ParseSize(raw)
			if !ok {
				return nil, shared.NewDomainError("INVALID_SIZE", "Unknown size: "+raw)
			}
			sizes = append(sizes, size)
		}
		var price decimal.Decimal
		if r.Price != nil {
			price = *r.Price
		} else {
			if price, err = s.calculator.SuggestCampaignPrice(g, specs, expectedQty); err != nil {
				return nil, err
			}
		}
		cfg, err := campaign.NewGarmentConfig(g, price, r.Colors, sizes)
		if err != nil {
			return nil, err
		}
		if id, ok := previous[g.ID]; ok {
			cfg.ID = id
		}
		configs = append(configs, *cfg)
	}
	return configs, nil
}

func (s *CampaignService) ensureArtwork(ctx context.Context, ids []uuid.UUID) error {
	if s.artworks == nil || len(ids) == 0 {
		return nil
	}
	return s.artworks.EnsureUsable(ctx, ids)
}

func (s *CampaignService) revokeOrganizer(ctx context.Context, c *campaign.Campaign, now time.Time) {
	if s.revoker == nil {
		return
	}
	ttl := c.Deadline.Add(s.tokenGrace).Sub(now)
	if ttl <= 0 {
		return
	}
	if err := s.revoker.RevokeSubject(ctx, c.ID.String(), ttl); err != nil {
		s.logger.Warn("Failed to revoke organizer tokens",
			zap.String("slug", c.Slug),
			zap.Error(err))
	}
}

func (s *CampaignService) recordFinalized(ctx context.Context, c *campaign.Campaign, production *order.Order) {
	s.metrics.RecordOrderCreated(ctx, "campaign")
	s.metrics.RecordCampaignTransition(ctx, campaign.StatusCompleted.String())
	s.logger.Info("Campaign finalized",
		zap.String("slug", c.Slug),
		zap.String("order_number", production.OrderNumber),
		zap.Int("total_quantity", production.TotalQuantity))
}

// cancelIntent cancels a payment intent that is no longer needed. Failures
// are logged; an abandoned intent expires on its own.
func (s *CampaignService) cancelIntent(ctx context.Context, intentID string) {
	if err := s.gateway.CancelPaymentIntent(ctx, intentID); err != nil {
		s.logger.Warn("Failed to cancel payment intent",
			zap.String("payment_intent_id", intentID),
			zap.Error(err))
	}
}

func (s *CampaignService) publishCampaign(ctx context.Context, c *campaign.Campaign) {
	s.publish(ctx, c.GetDomainEvents())
	c.ClearDomainEvents()
}

func (s *CampaignService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish campaign events", zap.Error(err))
	}
}

func paidTotal(orders []campaign.CampaignOrder) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status == campaign.OrderStatusPaid {
			total = total.Add(o.Total)
		}
	}
	return total
}

// toPlacements converts placement requests and collects the referenced
// artwork ids. A location without full color prints one ink by default.
func toPlacements(reqs []artworkapp.PlacementRequest) ([]campaign.ArtworkPlacement, []uuid.UUID) {
	placements := make([]campaign.ArtworkPlacement, 0, len(reqs))
	var ids []uuid.UUID
	for _, r := range reqs {
		p := campaign.ArtworkPlacement{
			Location:      artwork.PrintLocation(strings.ToLower(strings.TrimSpace(r.Location))),
			ArtworkFileID: r.ArtworkFileID,
			InkColors:     r.InkColors,
			FullColor:     r.FullColor,
		}
		if !p.FullColor && p.InkColors == 0 {
			p.InkColors = 1
		}
		if r.Transform != nil {
			p.Transform = *r.Transform
		}
		if r.ArtworkFileID != nil {
			ids = append(ids, *r.ArtworkFileID)
		}
		placements = append(placements, p)
	}
	return placements, ids
}

func placementSpecs(placements []campaign.ArtworkPlacement) []pricing.LocationSpec {
	specs := make([]pricing.LocationSpec, len(placements))
	for i, p := range placements {
		specs[i] = p.Spec()
	}
	return specs
}
