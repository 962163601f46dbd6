// Package billing adapts the Stripe API to the payment gateway port.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

var _ payment.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements payment.PaymentGateway with PaymentIntents
type StripeGateway struct {
	api             *client.API
	webhookSecret   string
	defaultCurrency string
	logger          *zap.Logger
}

// StripeGatewayOption configures a StripeGateway
type StripeGatewayOption func(*stripeGatewayOptions)

type stripeGatewayOptions struct {
	backend stripe.Backend
	logger  *zap.Logger
}

// WithBackend replaces the HTTP backend, mainly for tests
func WithBackend(backend stripe.Backend) StripeGatewayOption {
	return func(o *stripeGatewayOptions) {
		o.backend = backend
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) StripeGatewayOption {
	return func(o *stripeGatewayOptions) {
		o.logger = logger
	}
}

// NewStripeGateway creates a gateway bound to cfg.SecretKey
func NewStripeGateway(cfg config.StripeConfig, opts ...StripeGatewayOption) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, payment.ErrGatewayNotConfigured
	}
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, fmt.Errorf("stripe: secret key has unexpected prefix")
	}

	o := &stripeGatewayOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	var backends *stripe.Backends
	if o.backend != nil {
		backends = &stripe.Backends{API: o.backend, Connect: o.backend, Uploads: o.backend}
	}

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}

	return &StripeGateway{
		api:             client.New(cfg.SecretKey, backends),
		webhookSecret:   cfg.WebhookSecret,
		defaultCurrency: currency,
		logger:          o.logger,
	}, nil
}

// CreatePaymentIntent creates an intent with automatic payment methods
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req payment.PaymentIntentRequest) (*payment.PaymentIntent, error) {
	if req.Currency == "" {
		req.Currency = g.defaultCurrency
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error("Failed to create payment intent",
			zap.String("kind", req.Metadata[payment.MetadataKind]),
			zap.Int64("amount_cents", req.AmountCents),
			zap.Error(err))
		return nil, wrapStripeError("create payment intent", err)
	}

	g.logger.Info("Created payment intent",
		zap.String("payment_intent_id", pi.ID),
		zap.String("kind", req.Metadata[payment.MetadataKind]),
		zap.Int64("amount_cents", pi.Amount))

	return toPaymentIntent(pi), nil
}

// CancelPaymentIntent cancels an open intent
func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return payment.ErrInvalidPaymentIntent
	}
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		var stripeErr *stripe.Error
		// an intent that already succeeded or was cancelled cannot be cancelled again
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
			g.logger.Warn("Payment intent not cancellable",
				zap.String("payment_intent_id", id),
				zap.String("message", stripeErr.Msg))
			return nil
		}
		return wrapStripeError("cancel payment intent", err)
	}

	g.logger.Info("Cancelled payment intent", zap.String("payment_intent_id", id))
	return nil
}

// CreateRefund refunds a succeeded intent
func (g *StripeGateway) CreateRefund(ctx context.Context, req payment.RefundRequest) (*payment.Refund, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
	}
	params.Context = ctx
	if req.AmountCents > 0 {
		params.Amount = stripe.Int64(req.AmountCents)
	}
	if req.Reason != "" {
		params.Reason = stripe.String(string(stripe.RefundReasonRequestedByCustomer))
		params.AddMetadata("reason", req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	r, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Error("Failed to create refund",
			zap.String("payment_intent_id", req.PaymentIntentID),
			zap.Int64("amount_cents", req.AmountCents),
			zap.Error(err))
		return nil, wrapStripeError("create refund", err)
	}

	g.logger.Info("Created refund",
		zap.String("refund_id", r.ID),
		zap.String("payment_intent_id", req.PaymentIntentID),
		zap.Int64("amount_cents", r.Amount))

	return &payment.Refund{
		ID:              r.ID,
		PaymentIntentID: req.PaymentIntentID,
		AmountCents:     r.Amount,
		Status:          string(r.Status),
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Events other than payment_intent.* are returned without an Intent.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, payment.ErrGatewayNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") {
		return out, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, payment.ErrMalformedWebhookEvent
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedWebhookEvent, err)
	}
	out.Intent = toPaymentIntent(&pi)
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	return out, nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) *payment.PaymentIntent {
	return &payment.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       payment.IntentStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// wrapStripeError keeps ErrGatewayRequestFailed in the chain so callers
// can map any provider failure to a single response.
func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = string(stripeErr.Code)
		}
		return fmt.Errorf("%w: %s: %s", payment.ErrGatewayRequestFailed, op, msg)
	}
	return fmt.Errorf("%w: %s: %v", payment.ErrGatewayRequestFailed, op, err)
}
