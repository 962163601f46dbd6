package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentIntentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     PaymentIntentRequest
		wantErr error
	}{
		{
			name:    "zero amount",
			req:     PaymentIntentRequest{AmountCents: 0, Metadata: map[string]string{MetadataKind: "order"}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "bad currency",
			req:     PaymentIntentRequest{AmountCents: 100, Currency: "dollars", Metadata: map[string]string{MetadataKind: "order"}},
			wantErr: ErrInvalidCurrency,
		},
		{
			name:    "missing kind",
			req:     PaymentIntentRequest{AmountCents: 100},
			wantErr: ErrMissingKind,
		},
		{
			name:    "unknown kind",
			req:     PaymentIntentRequest{AmountCents: 100, Metadata: map[string]string{MetadataKind: "tip"}},
			wantErr: ErrMissingKind,
		},
		{
			name: "valid",
			req:  PaymentIntentRequest{AmountCents: 100, Currency: " USD ", Metadata: map[string]string{MetadataKind: "campaign"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "usd", tt.req.Currency)
		})
	}

	defaulted := PaymentIntentRequest{AmountCents: 1, Metadata: map[string]string{MetadataKind: "order"}}
	assert.NoError(t, defaulted.Validate())
	assert.Equal(t, "usd", defaulted.Currency)
}

func TestRefundRequest_Validate(t *testing.T) {
	assert.ErrorIs(t, (&RefundRequest{}).Validate(), ErrInvalidPaymentIntent)
	assert.ErrorIs(t, (&RefundRequest{PaymentIntentID: "pi_1", AmountCents: -1}).Validate(), ErrInvalidRefundAmount)
	assert.NoError(t, (&RefundRequest{PaymentIntentID: "pi_1"}).Validate())
}

func TestWebhookEvent_Kind(t *testing.T) {
	assert.Equal(t, Kind(""), (&WebhookEvent{}).Kind())
	e := &WebhookEvent{Intent: &PaymentIntent{Metadata: map[string]string{MetadataKind: "campaign_order"}}}
	assert.Equal(t, KindCampaignOrder, e.Kind())
	assert.True(t, e.Kind().IsValid())
}
