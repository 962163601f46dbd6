package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/inkthread/storefront/internal/application/billing"
	"github.com/inkthread/storefront/internal/domain/payment"
)

// Stripe event payloads stay well under 64 KiB
const maxWebhookPayloadSize = 65536

// WebhookProcessor verifies and routes payment events. *billingapp.StripeWebhookService implements it.
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error)
}

// StripeWebhookHandler receives Stripe deliveries. The route carries no
// auth; the Stripe-Signature header is verified by the processor.
type StripeWebhookHandler struct {
	BaseHandler
	webhookService WebhookProcessor
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(webhookService WebhookProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhookResponse is the body returned to Stripe
type StripeWebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripeWebhook godoc
//
//	@ID				stripeWebhook
//	@Summary		Stripe webhook
//	@Description	Receives Stripe events. The Stripe-Signature header is verified.
//	@Description	Any 5xx makes Stripe redeliver, so only processing failures return one.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header	string	true	"Stripe signature"
//	@Success		200	{object}	StripeWebhookResponse
//	@Failure		400	{object}	StripeWebhookResponse
//	@Failure		401	{object}	StripeWebhookResponse
//	@Failure		413	{object}	StripeWebhookResponse
//	@Failure		500	{object}	StripeWebhookResponse
//	@Failure		503	{object}	StripeWebhookResponse
//	@Router			/api/webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// the signature covers the exact bytes, so the body is read raw
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	switch {
	case err != nil:
		reject(c, http.StatusBadRequest, nil, "Failed to read request body")
		return
	case len(payload) > maxWebhookPayloadSize:
		reject(c, http.StatusRequestEntityTooLarge, nil, "Payload too large")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		reject(c, http.StatusUnauthorized, nil, "Missing Stripe-Signature header")
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, StripeWebhookResponse{
			Received:  true,
			EventID:   result.EventID,
			EventType: result.EventType,
			Message:   result.Message,
		})
	case errors.Is(err, payment.ErrGatewayNotConfigured):
		reject(c, http.StatusServiceUnavailable, nil, "Payments are not configured")
	case result != nil:
		// verified but not handled; the event id was not recorded
		reject(c, http.StatusInternalServerError, result, "Webhook processing failed")
	case errors.Is(err, payment.ErrInvalidSignature):
		reject(c, http.StatusUnauthorized, nil, "Webhook signature verification failed")
	default:
		reject(c, http.StatusBadRequest, nil, "Malformed webhook event")
	}
}

func reject(c *gin.Context, status int, result *billingapp.WebhookResult, message string) {
	resp := StripeWebhookResponse{Message: message}
	if result != nil {
		resp.EventID = result.EventID
		resp.EventType = result.EventType
	}
	c.JSON(status, resp)
}
