package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	customerapp "github.com/inkthread/storefront/internal/application/customer"
	pricingapp "github.com/inkthread/storefront/internal/application/pricing"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/inkthread/storefront/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderSortFields are the order_by values accepted by List
var OrderSortFields = []string{"order_number", "email", "status", "total", "total_quantity", "paid_at", "shipped_at"}

// ErrDocumentsDisabled is returned when PDF rendering is not configured
var ErrDocumentsDisabled = shared.NewDomainError("SERVICE_UNAVAILABLE", "PDF documents are not available")

// Quoter prices a set of garments and print locations
type Quoter interface {
	Quote(ctx context.Context, req pricingapp.QuoteRequest) (*pricing.Quote, error)
}

// ArtworkValidator checks that referenced artwork exists and is uploaded
type ArtworkValidator interface {
	EnsureUsable(ctx context.Context, ids []uuid.UUID) error
}

// RecentArtwork bumps a buyer's saved artwork when it is ordered
type RecentArtwork interface {
	Touch(ctx context.Context, email string, artworkIDs []uuid.UUID)
}

// PackingSlipRenderer renders an order's packing slip as PDF
type PackingSlipRenderer interface {
	PackingSlip(ctx context.Context, o *order.Order) ([]byte, error)
}

// OrderService handles checkout, tracking and order administration
type OrderService struct {
	orderRepo      order.OrderRepository
	customerRepo   customer.CustomerRepository
	quoter         Quoter
	artworks       ArtworkValidator
	gateway        payment.PaymentGateway
	recent         RecentArtwork
	documents      PackingSlipRenderer
	currency       string
	eventPublisher shared.EventPublisher
	metrics        *telemetry.StoreMetrics
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.OrderRepository,
	customerRepo customer.CustomerRepository,
	quoter Quoter,
	artworks ArtworkValidator,
	gateway payment.PaymentGateway,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		quoter:       quoter,
		artworks:     artworks,
		gateway:      gateway,
		currency:     "usd",
		logger:       logger,
	}
}

// SetCurrency sets the currency payment intents are created in
func (s *OrderService) SetCurrency(currency string) {
	if c := strings.ToLower(strings.TrimSpace(currency)); c != "" {
		s.currency = c
	}
}

// SetRecentArtwork sets where ordered artwork is recorded as recently used
func (s *OrderService) SetRecentArtwork(recent RecentArtwork) {
	s.recent = recent
}

// SetDocuments sets the packing slip renderer
func (s *OrderService) SetDocuments(documents PackingSlipRenderer) {
	s.documents = documents
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *OrderService) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// Checkout prices the request server-side, creates a pending_payment order
// and a payment intent for it.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (resp *CheckoutResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "checkout")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	address, err := valueobject.NewAddress(
		req.ShippingAddress.Line1, req.ShippingAddress.Line2, req.ShippingAddress.City,
		req.ShippingAddress.State, req.ShippingAddress.PostalCode, req.ShippingAddress.Country,
	)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	locations, artworkIDs := toPrintLocations(req.Locations)
	if err := s.artworks.EnsureUsable(ctx, artworkIDs); err != nil {
		return nil, err
	}

	quote, err := s.quoter.Quote(ctx, pricingapp.QuoteRequest{
		Lines:     req.Lines,
		Locations: toLocationRequests(locations),
	})
	if err != nil {
		return nil, err
	}

	buyer, err := customerapp.Upsert(ctx, s.customerRepo, customerapp.Contact{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, buyer.GetDomainEvents())
	buyer.ClearDomainEvents()

	number, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	o, err := order.NewOrder(number, order.Customer{
		ID:      buyer.ID,
		Email:   buyer.Email,
		Name:    req.Name,
		Address: address,
	}, quote, locations, strings.TrimSpace(req.Notes))
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, o.ID.String(),
		telemetry.SpanAttrOrderNumber, o.OrderNumber,
		telemetry.SpanAttrAmountCents, valueobject.ToCents(o.Total))

	intent, err := s.gateway.CreatePaymentIntent(ctx, payment.PaymentIntentRequest{
		AmountCents:  valueobject.ToCents(o.Total),
		Currency:     s.currency,
		ReceiptEmail: o.Email,
		Description:  "Order " + o.OrderNumber,
		Metadata: map[string]string{
			payment.MetadataKind:        payment.KindOrder.String(),
			payment.MetadataOrderID:     o.ID.String(),
			payment.MetadataOrderNumber: o.OrderNumber,
		},
		IdempotencyKey: "order-" + o.ID.String(),
	})
	if err != nil {
		s.metrics.RecordPayment(ctx, payment.KindOrder.String(), telemetry.OutcomeFailure)
		s.logger.Error("Failed to create payment intent",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil, shared.NewDomainError("SERVICE_UNAVAILABLE", "Payment provider is unavailable, please try again")
	}
	if err := o.AttachPaymentIntent(intent.ID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		if cancelErr := s.gateway.CancelPaymentIntent(ctx, intent.ID); cancelErr != nil {
			s.logger.Warn("Failed to cancel orphaned payment intent",
				zap.String("payment_intent_id", intent.ID),
				zap.Error(cancelErr))
		}
		return nil, err
	}

	s.publishOrder(ctx, o)
	s.metrics.RecordOrderCreated(ctx, "shop")
	if s.recent != nil && len(artworkIDs) > 0 {
		s.recent.Touch(ctx, o.Email, artworkIDs)
	}

	s.logger.Info("Order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("quantity", o.TotalQuantity))

	return &CheckoutResponse{
		Order:           ToOrderResponse(o),
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}, nil
}

// Lookup returns the public status of an order. A wrong email reads as not found.
func (s *OrderService) Lookup(ctx context.Context, req LookupRequest) (*OrderStatusResponse, error) {
	number := strings.ToUpper(strings.TrimSpace(req.OrderNumber))
	if !order.IsValidOrderNumber(number) {
		return nil, shared.ErrNotFound
	}
	o, err := s.orderRepo.FindByOrderNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.Email != shared.NormalizeEmail(req.Email) {
		return nil, shared.ErrNotFound
	}
	resp := ToOrderStatusResponse(o)
	return &resp, nil
}

// List returns orders for admins
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
	}.Normalize(OrderSortFields...)

	if filter.Status != "" {
		status := order.Status(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+filter.Status)
		}
		f.Filters["status"] = status.String()
	}
	if filter.CampaignID != nil {
		f.Filters["campaign_id"] = *filter.CampaignID
	}
	if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.From != nil {
		f.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		f.Filters["to"] = *filter.To
	}

	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// GetByID returns an order for admins
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// UpdateStatus applies an admin status change. Moving to refunded refunds
// the remaining balance through the gateway.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.Status(req.Status)
	if target == order.StatusRefunded {
		return s.Refund(ctx, id, RefundRequest{Reason: req.Reason})
	}

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.UpdateStatus(target, order.StatusUpdate{
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		Reason:         req.Reason,
	}); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	if target == order.StatusCancelled && o.PaymentIntentID != "" {
		if err := s.gateway.CancelPaymentIntent(ctx, o.PaymentIntentID); err != nil {
			s.logger.Warn("Failed to cancel payment intent",
				zap.String("order_number", o.OrderNumber),
				zap.String("payment_intent_id", o.PaymentIntentID),
				zap.Error(err))
		}
	}
	s.publishOrder(ctx, o)

	s.logger.Info("Order status updated",
		zap.String("order_number", o.OrderNumber),
		zap.String("status", o.Status.String()))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Refund returns all or part of an order's payment through the gateway
func (s *OrderService) Refund(ctx context.Context, id uuid.UUID, req RefundRequest) (resp *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "refund", telemetry.SpanAttrOrderID, id.String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.PaymentIntentID == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "Order has no payment to refund")
	}
	amount := o.RefundableAmount()
	if req.Amount != nil {
		amount = valueobject.RoundCents(*req.Amount)
	}
	// validate against the aggregate before any money moves
	if err := o.Refund(amount); err != nil {
		return nil, err
	}
	cents := valueobject.ToCents(amount)

	refund, err := s.gateway.CreateRefund(ctx, payment.RefundRequest{
		PaymentIntentID: o.PaymentIntentID,
		AmountCents:     cents,
		Reason:          req.Reason,
		IdempotencyKey:  fmt.Sprintf("refund-%s-%d", o.ID, o.Version),
	})
	if err != nil {
		s.logger.Error("Gateway refund failed",
			zap.String("order_number", o.OrderNumber),
			zap.Int64("amount_cents", cents),
			zap.Error(err))
		return nil, shared.NewDomainError("PAYMENT_FAILED", "Refund could not be processed")
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("Refund issued but order not saved",
			zap.String("order_number", o.OrderNumber),
			zap.String("refund_id", refund.ID),
			zap.Error(err))
		return nil, err
	}

	s.publishOrder(ctx, o)
	s.metrics.RecordRefund(ctx, cents)
	s.logger.Info("Order refunded",
		zap.String("order_number", o.OrderNumber),
		zap.String("refund_id", refund.ID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("status", o.Status.String()))

	out := ToOrderResponse(o)
	return &out, nil
}

// PackingSlip renders the order's packing slip. It returns the PDF and a file name.
func (s *OrderService) PackingSlip(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	if s.documents == nil {
		return nil, "", ErrDocumentsDisabled
	}
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.documents.PackingSlip(ctx, o)
	s.metrics.RecordDocument(ctx, "packing_slip", telemetry.OutcomeOf(err))
	if err != nil {
		return nil, "", err
	}
	return pdf, "packing-slip-" + o.OrderNumber + ".pdf", nil
}

// HandlePaymentSucceeded marks the order for a succeeded intent paid.
// Redelivery for an already paid order is a no-op.
func (s *OrderService) HandlePaymentSucceeded(ctx context.Context, intent *payment.PaymentIntent) error {
	o, err := s.findForIntent(ctx, intent)
	if err != nil {
		return err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "payment_succeeded",
		telemetry.SpanAttrOrderNumber, o.OrderNumber,
		telemetry.SpanAttrIntentID, intent.ID)
	defer span.End()

	if err := o.MarkPaid(intent.ID); err != nil {
		// Money arrived for an order that can no longer take it; leave it for an admin
		s.logger.Error("Payment succeeded for order that cannot be paid",
			zap.String("order_number", o.OrderNumber),
			zap.String("status", o.Status.String()),
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
		s.metrics.RecordPayment(ctx, payment.KindOrder.String(), telemetry.OutcomeRejected)
		return nil
	}
	if len(o.GetDomainEvents()) == 0 {
		return nil
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.publishOrder(ctx, o)
	s.metrics.RecordPayment(ctx, payment.KindOrder.String(), telemetry.OutcomeSuccess)
	s.metrics.RecordRevenue(ctx, payment.KindOrder.String(), valueobject.ToCents(o.Total))
	s.logger.Info("Order paid",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_intent_id", intent.ID))
	return nil
}

// HandlePaymentFailed records a failed payment attempt. The order stays
// pending so the buyer can retry with the same intent.
func (s *OrderService) HandlePaymentFailed(ctx context.Context, intent *payment.PaymentIntent, reason string) error {
	o, err := s.findForIntent(ctx, intent)
	if err != nil {
		return err
	}
	s.metrics.RecordPayment(ctx, payment.KindOrder.String(), telemetry.OutcomeFailure)
	s.logger.Warn("Order payment failed",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_intent_id", intent.ID),
		zap.String("reason", reason))
	return nil
}

// findForIntent loads the order named in the intent metadata, falling back
// to the stored intent id.
func (s *OrderService) findForIntent(ctx context.Context, intent *payment.PaymentIntent) (*order.Order, error) {
	if intent == nil {
		return nil, payment.ErrMalformedWebhookEvent
	}
	if raw := intent.Metadata[payment.MetadataOrderID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad order id %q", payment.ErrMalformedWebhookEvent, raw)
		}
		o, err := s.orderRepo.FindByID(ctx, id)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return o, err
		}
	}
	return s.orderRepo.FindByPaymentIntentID(ctx, intent.ID)
}

func (s *OrderService) publishOrder(ctx context.Context, o *order.Order) {
	s.publish(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()
}

func (s *OrderService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.Error(err))
	}
}

// toPrintLocations converts placements to order locations and collects the
// referenced artwork ids. A location without full color prints one ink by default.
func toPrintLocations(placements []artworkapp.PlacementRequest) ([]order.PrintLocation, []uuid.UUID) {
	locations := make([]order.PrintLocation, 0, len(placements))
	var ids []uuid.UUID
	for _, p := range placements {
		loc := order.PrintLocation{
			Location:      artwork.PrintLocation(strings.ToLower(strings.TrimSpace(p.Location))),
			ArtworkFileID: p.ArtworkFileID,
			InkColors:     p.InkColors,
			FullColor:     p.FullColor,
		}
		if !loc.FullColor && loc.InkColors == 0 {
			loc.InkColors = 1
		}
		if p.Transform != nil {
			loc.Transform = *p.Transform
		}
		if p.ArtworkFileID != nil {
			ids = append(ids, *p.ArtworkFileID)
		}
		locations = append(locations, loc)
	}
	return locations, ids
}

func toLocationRequests(locations []order.PrintLocation) []pricingapp.LocationRequest {
	out := make([]pricingapp.LocationRequest, len(locations))
	for i, loc := range locations {
		out[i] = pricingapp.LocationRequest{
			Location:  string(loc.Location),
			InkColors: loc.InkColors,
			FullColor: loc.FullColor,
		}
	}
	return out
}
