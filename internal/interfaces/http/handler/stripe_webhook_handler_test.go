package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	billingapp "github.com/inkthread/storefront/internal/application/billing"
	"github.com/inkthread/storefront/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func webhookRouter(svc *MockWebhookProcessor) *gin.Engine {
	router := newEngine()
	router.POST("/api/webhooks/stripe", NewStripeWebhookHandler(svc).HandleStripeWebhook)
	return router
}

func sendWebhook(router *gin.Engine, payload, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStripeWebhookHandler(t *testing.T) {
	const payload = `{"id":"evt_1","type":"payment_intent.succeeded"}`

	tests := []struct {
		name       string
		result     *billingapp.WebhookResult
		err        error
		wantStatus int
	}{
		{
			name:       "processed",
			result:     &billingapp.WebhookResult{EventID: "evt_1", EventType: "payment_intent.succeeded", Processed: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "duplicate delivery is acknowledged",
			result:     &billingapp.WebhookResult{EventID: "evt_1", Message: "already processed"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad signature",
			err:        fmt.Errorf("parse webhook: %w", payment.ErrInvalidSignature),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed event",
			err:        fmt.Errorf("parse webhook: %w", payment.ErrMalformedWebhookEvent),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "payments disabled",
			err:        payment.ErrGatewayNotConfigured,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "handler failure asks for redelivery",
			result:     &billingapp.WebhookResult{EventID: "evt_1", EventType: "payment_intent.succeeded"},
			err:        errors.New("database unavailable"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWebhookProcessor)
			svc.On("ProcessWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").Return(tt.result, tt.err)

			w := sendWebhook(webhookRouter(svc), payload, "t=1,v1=abc")

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			svc.AssertExpectations(t)
		})
	}

	t.Run("missing signature", func(t *testing.T) {
		svc := new(MockWebhookProcessor)
		w := sendWebhook(webhookRouter(svc), payload, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "ProcessWebhook", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversized payload", func(t *testing.T) {
		svc := new(MockWebhookProcessor)
		w := sendWebhook(webhookRouter(svc), strings.Repeat("x", maxWebhookPayloadSize+1), "t=1,v1=abc")

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
