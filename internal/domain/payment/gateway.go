package payment

import (
	"context"
	"errors"
	"strings"
)

// ---------------------------------------------------------------------------
// Payment Gateway Errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidAmount         = errors.New("payment: amount must be positive")
	ErrInvalidCurrency       = errors.New("payment: invalid currency")
	ErrMissingKind           = errors.New("payment: metadata kind is required")
	ErrInvalidPaymentIntent  = errors.New("payment: payment intent ID is required")
	ErrInvalidRefundAmount   = errors.New("refund: amount must be positive")
	ErrInvalidSignature      = errors.New("payment: invalid webhook signature")
	ErrGatewayNotConfigured  = errors.New("payment: gateway not configured")
	ErrGatewayRequestFailed  = errors.New("payment: gateway request failed")
	ErrMalformedWebhookEvent = errors.New("payment: malformed webhook event")
)

// Metadata keys attached to every payment intent
const (
	MetadataKind            = "kind"
	MetadataOrderID         = "order_id"
	MetadataOrderNumber     = "order_number"
	MetadataCampaignID      = "campaign_id"
	MetadataCampaignSlug    = "campaign_slug"
	MetadataCampaignOrderID = "campaign_order_id"
)

// Kind routes a payment back to the aggregate that requested it
type Kind string

const (
	KindOrder         Kind = "order"
	KindCampaign      Kind = "campaign"
	KindCampaignOrder Kind = "campaign_order"
)

// IsValid returns true if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindOrder, KindCampaign, KindCampaignOrder:
		return true
	default:
		return false
	}
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// IntentStatus is the gateway-side status of a payment intent
type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment_method"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusCanceled        IntentStatus = "canceled"
)

// ---------------------------------------------------------------------------
// Payment Request/Response DTOs
// ---------------------------------------------------------------------------

// PaymentIntentRequest represents a request to create a payment intent
type PaymentIntentRequest struct {
	// AmountCents is the amount in the smallest currency unit
	AmountCents int64
	// Currency is a lowercase ISO code (default: usd)
	Currency string
	// ReceiptEmail receives the gateway receipt
	ReceiptEmail string
	// Description is shown on the gateway dashboard
	Description string
	// Metadata must carry MetadataKind
	Metadata map[string]string
	// IdempotencyKey makes retries safe
	IdempotencyKey string
}

// Validate validates the payment intent request and fills defaults
func (r *PaymentIntentRequest) Validate() error {
	if r.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "usd"
	}
	if len(r.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if !Kind(r.Metadata[MetadataKind]).IsValid() {
		return ErrMissingKind
	}
	return nil
}

// PaymentIntent is the gateway's view of a created intent
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
}

// RefundRequest represents a refund of a succeeded payment intent
type RefundRequest struct {
	PaymentIntentID string
	// AmountCents of 0 refunds the remaining amount
	AmountCents    int64
	Reason         string
	IdempotencyKey string
}

// Validate validates the refund request
func (r *RefundRequest) Validate() error {
	if strings.TrimSpace(r.PaymentIntentID) == "" {
		return ErrInvalidPaymentIntent
	}
	if r.AmountCents < 0 {
		return ErrInvalidRefundAmount
	}
	return nil
}

// Refund is the gateway's view of a created refund
type Refund struct {
	ID              string
	PaymentIntentID string
	AmountCents     int64
	Status          string
}

// Webhook event types routed by the webhook service
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventPaymentIntentCanceled  = "payment_intent.canceled"
)

// WebhookEvent is a verified gateway notification
type WebhookEvent struct {
	// ID is the gateway event ID, used for deduplication
	ID   string
	Type string
	// Intent is set for payment_intent.* events
	Intent *PaymentIntent
	// FailureMessage is the last payment error, if any
	FailureMessage string
}

// Kind returns the routing kind from the intent metadata
func (e *WebhookEvent) Kind() Kind {
	if e.Intent == nil {
		return ""
	}
	return Kind(e.Intent.Metadata[MetadataKind])
}

// ---------------------------------------------------------------------------
// PaymentGateway Port Interface
// ---------------------------------------------------------------------------

// PaymentGateway defines the port interface for the external payment provider.
// The Stripe adapter lives in the infrastructure layer.
type PaymentGateway interface {
	// CreatePaymentIntent creates an intent the browser confirms with its client secret
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)

	// CancelPaymentIntent cancels an intent that has not succeeded
	CancelPaymentIntent(ctx context.Context, id string) error

	// CreateRefund refunds all or part of a succeeded intent
	CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error)

	// ParseWebhook verifies the signature and decodes the event
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
