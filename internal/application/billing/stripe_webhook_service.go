package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultEventTTL is how long a processed Stripe event id is remembered
	DefaultEventTTL = 72 * time.Hour

	eventKeyPrefix = "stripe:"
)

// OrderPaymentHandler settles shop order payments
type OrderPaymentHandler interface {
	HandlePaymentSucceeded(ctx context.Context, intent *payment.PaymentIntent) error
	HandlePaymentFailed(ctx context.Context, intent *payment.PaymentIntent, reason string) error
}

// CampaignPaymentHandler settles organizer and participant campaign payments
type CampaignPaymentHandler interface {
	HandleOrganizerPaymentSucceeded(ctx context.Context, intent *payment.PaymentIntent) error
	HandleOrganizerPaymentFailed(ctx context.Context, intent *payment.PaymentIntent, reason string) error
	HandleParticipantPaymentSucceeded(ctx context.Context, intent *payment.PaymentIntent) error
	HandleParticipantPaymentFailed(ctx context.Context, intent *payment.PaymentIntent, reason string) error
}

// StripeWebhookService handles Stripe webhook events
type StripeWebhookService struct {
	gateway   payment.PaymentGateway
	orders    OrderPaymentHandler
	campaigns CampaignPaymentHandler
	store     shared.IdempotencyStore
	ttl       time.Duration
	metrics   *telemetry.StoreMetrics
	logger    *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Gateway   payment.PaymentGateway
	Orders    OrderPaymentHandler
	Campaigns CampaignPaymentHandler
	// Store deduplicates deliveries; nil disables deduplication
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &StripeWebhookService{
		gateway:   cfg.Gateway,
		orders:    cfg.Orders,
		campaigns: cfg.Campaigns,
		store:     cfg.Store,
		ttl:       ttl,
		logger:    logger,
	}
}

// SetMetrics sets the business metrics recorder
func (s *StripeWebhookService) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and processes a Stripe webhook event. A returned
// error with a nil result means the payload was rejected; an error with a
// result means processing failed and Stripe should retry.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (result *WebhookResult, err error) {
	if s.gateway == nil {
		return nil, payment.ErrGatewayNotConfigured
	}

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		s.metrics.RecordWebhook(ctx, "unknown", telemetry.OutcomeRejected)
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "process_webhook",
		telemetry.SpanAttrEventID, event.ID,
		telemetry.SpanAttrPaymentKind, event.Kind().String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	result = &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Processed: true,
	}

	if s.isDuplicate(ctx, event.ID) {
		result.Message = "Event already processed"
		s.metrics.RecordWebhook(ctx, event.Type, telemetry.OutcomeSkipped)
		return result, nil
	}

	handled := true
	switch event.Type {
	case payment.EventPaymentIntentSucceeded:
		handled, err = s.handleSucceeded(ctx, event)
	case payment.EventPaymentIntentFailed:
		handled, err = s.handleFailed(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", event.Type))
		handled = false
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		s.forget(ctx, event.ID)
		s.metrics.RecordWebhook(ctx, event.Type, telemetry.OutcomeFailure)
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	if !handled {
		result.Message = "Event type not handled"
		s.metrics.RecordWebhook(ctx, event.Type, telemetry.OutcomeSkipped)
		return result, nil
	}
	s.metrics.RecordWebhook(ctx, event.Type, telemetry.OutcomeSuccess)
	return result, nil
}

// handleSucceeded routes payment_intent.succeeded by metadata kind
func (s *StripeWebhookService) handleSucceeded(ctx context.Context, event *payment.WebhookEvent) (bool, error) {
	if event.Intent == nil {
		return false, payment.ErrMalformedWebhookEvent
	}

	var err error
	switch event.Kind() {
	case payment.KindOrder:
		err = s.orders.HandlePaymentSucceeded(ctx, event.Intent)
	case payment.KindCampaign:
		err = s.campaigns.HandleOrganizerPaymentSucceeded(ctx, event.Intent)
	case payment.KindCampaignOrder:
		err = s.campaigns.HandleParticipantPaymentSucceeded(ctx, event.Intent)
	default:
		s.logger.Warn("Payment intent has no routable kind",
			zap.String("payment_intent_id", event.Intent.ID),
			zap.String("kind", event.Kind().String()))
		return false, nil
	}
	return true, s.ackMissing(event, err)
}

// handleFailed routes payment_intent.payment_failed by metadata kind
func (s *StripeWebhookService) handleFailed(ctx context.Context, event *payment.WebhookEvent) (bool, error) {
	if event.Intent == nil {
		return false, payment.ErrMalformedWebhookEvent
	}

	var err error
	switch event.Kind() {
	case payment.KindOrder:
		err = s.orders.HandlePaymentFailed(ctx, event.Intent, event.FailureMessage)
	case payment.KindCampaign:
		err = s.campaigns.HandleOrganizerPaymentFailed(ctx, event.Intent, event.FailureMessage)
	case payment.KindCampaignOrder:
		err = s.campaigns.HandleParticipantPaymentFailed(ctx, event.Intent, event.FailureMessage)
	default:
		s.logger.Warn("Payment intent has no routable kind",
			zap.String("payment_intent_id", event.Intent.ID),
			zap.String("kind", event.Kind().String()))
		return false, nil
	}
	return true, s.ackMissing(event, err)
}

// ackMissing swallows not-found errors. Intents created outside this store
// (dashboard tests, other integrations) must not be retried forever.
func (s *StripeWebhookService) ackMissing(event *payment.WebhookEvent, err error) error {
	if err != nil && errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("No record for payment intent",
			zap.String("event_id", event.ID),
			zap.String("payment_intent_id", event.Intent.ID))
		return nil
	}
	return err
}

// isDuplicate marks eventID processed and reports whether it already was.
// A store failure lets the event through; the handlers are idempotent.
func (s *StripeWebhookService) isDuplicate(ctx context.Context, eventID string) bool {
	if s.store == nil {
		return false
	}
	fresh, err := s.store.MarkProcessed(ctx, eventKeyPrefix+eventID, s.ttl)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, processing event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return false
	}
	if !fresh {
		s.logger.Info("Skipping duplicate webhook event", zap.String("event_id", eventID))
	}
	return !fresh
}

// forget clears the processed mark so a retried delivery runs again
func (s *StripeWebhookService) forget(ctx context.Context, eventID string) {
	if s.store == nil {
		return
	}
	if err := s.store.Forget(ctx, eventKeyPrefix+eventID); err != nil {
		s.logger.Warn("Failed to clear processed mark",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
