package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testQuote(t *testing.T) *pricing.Quote {
	t.Helper()
	g, err := catalog.NewGarment("Tee", "Gildan", "64000", catalog.CategoryTShirt, dec("3.10"))
	require.NoError(t, err)
	require.NoError(t, g.SetColors([]catalog.Color{{Name: "Black", Hex: "#000000"}}))
	require.NoError(t, g.SetSizes([]catalog.Size{"S", "M", "L"}))

	q, err := pricing.NewQuoteCalculator(pricing.DefaultRateTable()).Calculate(pricing.QuoteInput{
		Lines:     []pricing.LineInput{{Garment: g, Color: "Black", Sizes: map[catalog.Size]int{"M": 10, "L": 2}}},
		Locations: []pricing.LocationSpec{{Location: artwork.LocationFront, InkColors: 1}},
	})
	require.NoError(t, err)
	return q
}

func testCustomer() Customer {
	return Customer{
		ID:      uuid.New(),
		Email:   "Pat@Example.com",
		Name:    "Pat",
		Address: valueobject.Address{Line1: "1 Main", City: "Reno", State: "NV", PostalCode: "89501", Country: "US"},
	}
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	artworkID := uuid.New()
	o, err := NewOrder(NewOrderNumber(time.Now()), testCustomer(), testQuote(t), []PrintLocation{
		{Location: artwork.LocationFront, ArtworkFileID: &artworkID, InkColors: 1},
	}, "rush please")
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func paidOrder(t *testing.T) *Order {
	t.Helper()
	o := newTestOrder(t)
	require.NoError(t, o.AttachPaymentIntent("pi_123"))
	require.NoError(t, o.MarkPaid("pi_123"))
	o.ClearDomainEvents()
	return o
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingPayment, StatusPaid, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusPendingPayment, StatusShipped, false},
		{StatusPaid, StatusInProduction, true},
		{StatusPaid, StatusRefunded, true},
		{StatusPaid, StatusCancelled, false},
		{StatusInProduction, StatusShipped, true},
		{StatusInProduction, StatusRefunded, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusRefunded, false},
		{StatusDelivered, StatusPaid, false},
		{StatusCancelled, StatusPaid, false},
		{StatusRefunded, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestNewOrder(t *testing.T) {
	q := testQuote(t)
	o, err := NewOrder("AP-250101-ABCDEF", testCustomer(), q, []PrintLocation{{Location: artwork.LocationFront, InkColors: 1}}, "")
	require.NoError(t, err)

	assert.Equal(t, StatusPendingPayment, o.Status)
	assert.Equal(t, "pat@example.com", o.Email)
	assert.Equal(t, 12, o.TotalQuantity)
	assert.True(t, o.Total.Equal(q.Total))
	require.Len(t, o.Items, 1)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.True(t, o.Items[0].UnitPrice.Equal(valueobject.RoundCents(q.Lines[0].LineTotal.Div(decimal.NewFromInt(12)))))
	require.Len(t, o.PrintLocations, 1)
	assert.Equal(t, artwork.DefaultTransform(), o.PrintLocations[0].Transform)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderCreated, events[0].EventType())

	t.Run("rejects bad order number", func(t *testing.T) {
		_, err := NewOrder("SO-1", testCustomer(), q, nil, "")
		assert.Equal(t, "INVALID_ORDER_NUMBER", domainCode(t, err))
	})

	t.Run("requires shipping address", func(t *testing.T) {
		c := testCustomer()
		c.Address = valueobject.Address{}
		_, err := NewOrder("AP-250101-ABCDEF", c, q, nil, "")
		assert.Equal(t, "INVALID_ADDRESS", domainCode(t, err))
	})

	t.Run("rejects invalid transform", func(t *testing.T) {
		_, err := NewOrder("AP-250101-ABCDEF", testCustomer(), q, []PrintLocation{
			{Location: artwork.LocationFront, InkColors: 1, Transform: artwork.Transform{X: 2, Y: 0.5, Scale: 1, Width: 1, Height: 1}},
		}, "")
		assert.Equal(t, "INVALID_TRANSFORM", domainCode(t, err))
	})

	t.Run("rejects tampered quote", func(t *testing.T) {
		bad := *q
		bad.Total = bad.Total.Add(decimal.NewFromInt(1))
		_, err := NewOrder("AP-250101-ABCDEF", testCustomer(), &bad, nil, "")
		assert.Equal(t, "QUOTE_MISMATCH", domainCode(t, err))
	})
}

func TestOrder_MarkPaid(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AttachPaymentIntent("pi_123"))

	require.NoError(t, o.MarkPaid("pi_123"))
	assert.Equal(t, StatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)

	events := o.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeOrderPaid, events[0].EventType())
	assert.Equal(t, EventTypeOrderStatusChanged, events[1].EventType())

	// webhook redelivery is a no-op
	require.NoError(t, o.MarkPaid("pi_123"))
	assert.Len(t, o.GetDomainEvents(), 2)

	require.NoError(t, o.StartProduction())
	require.NoError(t, o.MarkPaid("pi_123"))

	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, o.MarkPaid("pi_other")))
}

func TestOrder_MarkPaid_IntentMismatch(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AttachPaymentIntent("pi_1"))
	assert.Equal(t, "PAYMENT_MISMATCH", domainCode(t, o.MarkPaid("pi_2")))
}

func TestOrder_Fulfilment(t *testing.T) {
	o := paidOrder(t)

	require.NoError(t, o.StartProduction())
	assert.Equal(t, "INVALID_INPUT", domainCode(t, o.Ship("UPS", " ")))
	require.NoError(t, o.Ship("UPS", "1Z999"))
	assert.Equal(t, "1Z999", o.TrackingNumber)
	require.NotNil(t, o.ShippedAt)

	require.NoError(t, o.Deliver())
	assert.Equal(t, StatusDelivered, o.Status)
	assert.True(t, o.Status.IsTerminal())

	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, o.StartProduction()))
	assert.Len(t, o.GetDomainEvents(), 3)
}

func TestOrder_Cancel(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Cancel(" customer changed mind "))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, "customer changed mind", o.CancelReason)

	paid := paidOrder(t)
	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, paid.Cancel("")))
}

func TestOrder_Refund(t *testing.T) {
	o := paidOrder(t)
	total := o.Total

	require.NoError(t, o.Refund(dec("10.00")))
	assert.Equal(t, StatusPaid, o.Status)
	assert.True(t, o.RefundedAmount.Equal(dec("10.00")))

	assert.Equal(t, "INVALID_INPUT", domainCode(t, o.Refund(total)))
	assert.Equal(t, "INVALID_INPUT", domainCode(t, o.Refund(decimal.Zero)))

	require.NoError(t, o.Refund(o.RefundableAmount()))
	assert.Equal(t, StatusRefunded, o.Status)
	assert.True(t, o.RefundedAmount.Equal(total))

	var refunds int
	for _, e := range o.GetDomainEvents() {
		if e.EventType() == EventTypeOrderRefunded {
			refunds++
		}
	}
	assert.Equal(t, 2, refunds)
}

func TestOrder_Refund_ShippedOnlyPartial(t *testing.T) {
	o := paidOrder(t)
	require.NoError(t, o.StartProduction())
	require.NoError(t, o.Ship("USPS", "9400"))

	require.NoError(t, o.Refund(dec("5")))
	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, o.Refund(o.RefundableAmount())))

	pending := newTestOrder(t)
	assert.Equal(t, "INVALID_STATE", domainCode(t, pending.Refund(dec("1"))))
}

func TestOrder_UpdateStatus(t *testing.T) {
	o := paidOrder(t)

	require.NoError(t, o.UpdateStatus(StatusInProduction, StatusUpdate{}))
	require.NoError(t, o.UpdateStatus(StatusShipped, StatusUpdate{Carrier: "FedEx", TrackingNumber: "77"}))
	assert.Equal(t, "FedEx", o.Carrier)
	assert.Equal(t, "INVALID_TRANSITION", domainCode(t, o.UpdateStatus(StatusCancelled, StatusUpdate{})))
	assert.Equal(t, "INVALID_STATUS", domainCode(t, o.UpdateStatus("lost", StatusUpdate{})))

	r := paidOrder(t)
	require.NoError(t, r.UpdateStatus(StatusRefunded, StatusUpdate{}))
	assert.Equal(t, StatusRefunded, r.Status)
}

func TestNewCampaignProductionOrder(t *testing.T) {
	campaignID := uuid.New()
	item, err := NewItem(uuid.Nil, uuid.New(), "Tee", "64000", "Black", map[catalog.Size]int{"M": 3, "L": 2}, dec("60"))
	require.NoError(t, err)

	cust := testCustomer()
	cust.Address = valueobject.Address{}
	o, err := NewCampaignProductionOrder("AP-250101-ZZZZZZ", campaignID, cust, []Item{*item}, nil, dec("60"))
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, o.Status)
	assert.True(t, o.IsCampaignOrder())
	assert.Equal(t, 5, o.TotalQuantity)
	assert.True(t, o.Total.Equal(dec("60")))
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.True(t, o.Items[0].UnitPrice.Equal(dec("12")))
}

func TestNewItem(t *testing.T) {
	_, err := NewItem(uuid.New(), uuid.New(), "Tee", "X", "Black", map[catalog.Size]int{"M": 0}, dec("1"))
	assert.Error(t, err)
	_, err = NewItem(uuid.New(), uuid.New(), "Tee", "X", "Black", map[catalog.Size]int{"M": -2}, dec("1"))
	assert.Error(t, err)
}

func TestOrderNumber(t *testing.T) {
	n := NewOrderNumber(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC))
	assert.True(t, IsValidOrderNumber(n), n)
	assert.Equal(t, "AP-250314-", n[:10])
	assert.NotEqual(t, n, NewOrderNumber(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)))
	assert.False(t, IsValidOrderNumber("AP-2503-ABCDEF"))
}
