package event

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewEventSerializer()
	s.Register("Test", &testEvent{})

	original := newTestEvent("Test")
	original.Timestamp = original.Timestamp.Truncate(time.Millisecond)

	data, err := s.Serialize(original)
	require.NoError(t, err)

	decoded, err := s.Deserialize("Test", data)
	require.NoError(t, err)

	event, ok := decoded.(*testEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.AggregateID(), event.AggregateID())
	assert.Equal(t, "test data", event.Data)
}

func TestEventSerializer_Errors(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize("Unknown", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	s.Register("Test", &testEvent{})
	_, err = s.Deserialize("Test", []byte(`not json`))
	assert.ErrorContains(t, err, "failed to unmarshal")
}

func TestEventSerializer_Envelope(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	paid := &order.OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPaid, order.AggregateTypeOrder, uuid.New()),
		OrderNumber:     "AP-261019-ABC123",
		Amount:          decimal.RequireFromString("123.45"),
		PaymentIntentID: "pi_1",
	}

	data, err := s.Wrap(paid)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, paid.EventID(), env.EventID)
	assert.Equal(t, order.EventTypeOrderPaid, env.EventType)
	assert.Equal(t, order.AggregateTypeOrder, env.AggregateType)

	decoded, err := s.Unwrap(data)
	require.NoError(t, err)
	got, ok := decoded.(*order.OrderPaidEvent)
	require.True(t, ok)
	assert.Equal(t, "AP-261019-ABC123", got.OrderNumber)
	assert.True(t, got.Amount.Equal(paid.Amount))
}

func TestRegisterAllEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	for _, eventType := range []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderRefunded,
		campaign.EventTypeCampaignCreated,
		campaign.EventTypeCampaignCancelled,
		"ArtworkVectorized",
		"GarmentUpdated",
		"CustomerCreated",
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}
	assert.Len(t, s.RegisteredTypes(), 17)
}
