package billing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goccy/go-json"
	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test_123456789"

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:      "sk_test_123456789",
		PublishableKey: "pk_test_123456789",
		WebhookSecret:  testWebhookSecret,
		Currency:       "usd",
	}
}

// newTestGateway points the gateway at an httptest server standing in for api.stripe.com
func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	g, err := NewStripeGateway(testStripeConfig(), WithBackend(backend))
	require.NoError(t, err)
	return g
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewStripeGateway_Validation(t *testing.T) {
	cfg := testStripeConfig()
	cfg.SecretKey = ""
	_, err := NewStripeGateway(cfg)
	assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)

	cfg.SecretKey = "pk_test_wrong"
	_, err = NewStripeGateway(cfg)
	assert.ErrorContains(t, err, "unexpected prefix")

	cfg = testStripeConfig()
	cfg.Currency = ""
	g, err := NewStripeGateway(cfg)
	require.NoError(t, err)
	assert.Equal(t, "usd", g.defaultCurrency)
}

func TestStripeGateway_CreatePaymentIntent(t *testing.T) {
	var form url.Values
	var idempotencyKey string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		idempotencyKey = r.Header.Get("Idempotency-Key")
		writeJSON(w, http.StatusOK, map[string]any{
			"id":            "pi_123",
			"object":        "payment_intent",
			"amount":        4250,
			"currency":      "usd",
			"client_secret": "pi_123_secret_abc",
			"status":        "requires_payment_method",
			"metadata":      map[string]string{"kind": "order", "order_id": "o-1"},
		})
	})

	pi, err := g.CreatePaymentIntent(context.Background(), payment.PaymentIntentRequest{
		AmountCents:    4250,
		ReceiptEmail:   "buyer@example.com",
		Description:    "Order IT-ABC123",
		Metadata:       map[string]string{payment.MetadataKind: "order", payment.MetadataOrderID: "o-1"},
		IdempotencyKey: "order-o-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, "pi_123_secret_abc", pi.ClientSecret)
	assert.Equal(t, int64(4250), pi.AmountCents)
	assert.Equal(t, payment.IntentStatusRequiresPayment, pi.Status)
	assert.Equal(t, "o-1", pi.Metadata[payment.MetadataOrderID])

	assert.Equal(t, "4250", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, "buyer@example.com", form.Get("receipt_email"))
	assert.Equal(t, "order", form.Get("metadata[kind]"))
	assert.Equal(t, "order-o-1", idempotencyKey)
}

func TestStripeGateway_CreatePaymentIntent_RejectsInvalidRequest(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := g.CreatePaymentIntent(context.Background(), payment.PaymentIntentRequest{AmountCents: 0})
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
}

func TestStripeGateway_CreatePaymentIntent_ProviderError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error": map[string]any{
				"type":    "card_error",
				"code":    "card_declined",
				"message": "Your card was declined.",
			},
		})
	})

	_, err := g.CreatePaymentIntent(context.Background(), payment.PaymentIntentRequest{
		AmountCents: 100,
		Metadata:    map[string]string{payment.MetadataKind: "campaign"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestStripeGateway_CancelPaymentIntent(t *testing.T) {
	t.Run("cancels open intent", func(t *testing.T) {
		var path string
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			writeJSON(w, http.StatusOK, map[string]any{"id": "pi_1", "object": "payment_intent", "status": "canceled"})
		})
		require.NoError(t, g.CancelPaymentIntent(context.Background(), "pi_1"))
		assert.Equal(t, "/v1/payment_intents/pi_1/cancel", path)
	})

	t.Run("unexpected state is not an error", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{
					"type":    "invalid_request_error",
					"code":    "payment_intent_unexpected_state",
					"message": "This PaymentIntent has already succeeded.",
				},
			})
		})
		assert.NoError(t, g.CancelPaymentIntent(context.Background(), "pi_1"))
	})

	t.Run("empty id", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})
		assert.ErrorIs(t, g.CancelPaymentIntent(context.Background(), " "), payment.ErrInvalidPaymentIntent)
	})
}

func TestStripeGateway_CreateRefund(t *testing.T) {
	var form url.Values
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":             "re_1",
			"object":         "refund",
			"amount":         1500,
			"status":         "succeeded",
			"payment_intent": "pi_1",
		})
	})

	refund, err := g.CreateRefund(context.Background(), payment.RefundRequest{
		PaymentIntentID: "pi_1",
		AmountCents:     1500,
		Reason:          "misprint",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.Equal(t, int64(1500), refund.AmountCents)
	assert.Equal(t, "succeeded", refund.Status)
	assert.Equal(t, "pi_1", form.Get("payment_intent"))
	assert.Equal(t, "1500", form.Get("amount"))
	assert.Equal(t, "requested_by_customer", form.Get("reason"))
	assert.Equal(t, "misprint", form.Get("metadata[reason]"))

	_, err = g.CreateRefund(context.Background(), payment.RefundRequest{})
	assert.ErrorIs(t, err, payment.ErrInvalidPaymentIntent)
}

func signedEvent(t *testing.T, event map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Payload, signed.Header
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	g, err := NewStripeGateway(testStripeConfig())
	require.NoError(t, err)

	t.Run("payment_intent.succeeded", func(t *testing.T) {
		payload, header := signedEvent(t, map[string]any{
			"id":          "evt_1",
			"object":      "event",
			"type":        "payment_intent.succeeded",
			"api_version": stripe.APIVersion,
			"data": map[string]any{
				"object": map[string]any{
					"id":       "pi_9",
					"object":   "payment_intent",
					"amount":   9900,
					"currency": "usd",
					"status":   "succeeded",
					"metadata": map[string]string{"kind": "campaign", "campaign_id": "c-1"},
				},
			},
		})

		evt, err := g.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", evt.ID)
		assert.Equal(t, payment.EventPaymentIntentSucceeded, evt.Type)
		require.NotNil(t, evt.Intent)
		assert.Equal(t, "pi_9", evt.Intent.ID)
		assert.Equal(t, payment.KindCampaign, evt.Kind())
		assert.Equal(t, payment.IntentStatusSucceeded, evt.Intent.Status)
	})

	t.Run("payment failure carries message", func(t *testing.T) {
		payload, header := signedEvent(t, map[string]any{
			"id":          "evt_2",
			"object":      "event",
			"type":        "payment_intent.payment_failed",
			"api_version": stripe.APIVersion,
			"data": map[string]any{
				"object": map[string]any{
					"id":                 "pi_10",
					"object":             "payment_intent",
					"status":             "requires_payment_method",
					"metadata":           map[string]string{"kind": "order"},
					"last_payment_error": map[string]any{"message": "insufficient funds"},
				},
			},
		})

		evt, err := g.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "insufficient funds", evt.FailureMessage)
	})

	t.Run("other events have no intent", func(t *testing.T) {
		payload, header := signedEvent(t, map[string]any{
			"id":          "evt_3",
			"object":      "event",
			"type":        "charge.refunded",
			"api_version": stripe.APIVersion,
			"data":        map[string]any{"object": map[string]any{"id": "ch_1"}},
		})

		evt, err := g.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Nil(t, evt.Intent)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload, _ := signedEvent(t, map[string]any{"id": "evt_4", "object": "event", "type": "payment_intent.succeeded"})
		_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := testStripeConfig()
		cfg.WebhookSecret = ""
		unsigned, err := NewStripeGateway(cfg)
		require.NoError(t, err)
		_, err = unsigned.ParseWebhook([]byte("{}"), "")
		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	})
}
