package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Outcome values for the outcome attribute
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// ActiveCampaignCounter reports how many campaigns are accepting orders
type ActiveCampaignCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// StoreMetrics records business metrics for the storefront. A nil
// *StoreMetrics records nothing.
type StoreMetrics struct {
	logger *zap.Logger

	ordersCreated      *Counter
	revenue            *Counter
	campaignOrders     *Counter
	campaignTransition *Counter
	payments           *Counter
	refunds            *Counter
	refundedAmount     *Counter
	webhooks           *Counter
	vectorizeJobs      *Counter
	vectorizeDuration  *Histogram
	generations        *Counter
	documents          *Counter

	activeGauge metric.Int64ObservableGauge
	reg         metric.Registration

	mu     sync.Mutex
	source ActiveCampaignCounter
}

// NewStoreMetrics creates the storefront instruments on meter
func NewStoreMetrics(meter metric.Meter, logger *zap.Logger) (*StoreMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &StoreMetrics{logger: logger}

	var errs []error
	counter := func(name, desc, unit string) *Counter {
		c, err := NewCounter(meter, name, desc, unit)
		errs = append(errs, err)
		return c
	}

	m.ordersCreated = counter("store.orders.created", "Orders placed", "{order}")
	m.revenue = counter("store.revenue", "Revenue collected", "cents")
	m.campaignOrders = counter("store.campaign_orders.placed", "Campaign participant orders placed", "{order}")
	m.campaignTransition = counter("store.campaign.transitions", "Campaign status transitions", "{transition}")
	m.payments = counter("store.payments", "Payment intent outcomes", "{payment}")
	m.refunds = counter("store.refunds", "Refunds issued", "{refund}")
	m.refundedAmount = counter("store.refunds.amount", "Amount refunded", "cents")
	m.webhooks = counter("store.webhooks", "Payment webhook deliveries", "{event}")
	m.vectorizeJobs = counter("store.vectorize.jobs", "Vectorization jobs finished", "{job}")
	m.generations = counter("store.ai.generations", "AI artwork generations", "{generation}")
	m.documents = counter("store.documents.rendered", "PDF documents rendered", "{document}")

	var err error
	m.vectorizeDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "store.vectorize.duration",
		Description: "Vectorization call duration",
		Unit:        "s",
		Boundaries:  ExternalDurationBuckets,
	})
	errs = append(errs, err)

	m.activeGauge, err = meter.Int64ObservableGauge("store.campaigns.active",
		metric.WithDescription("Campaigns accepting orders"),
		metric.WithUnit("{campaign}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	m.reg, err = meter.RegisterCallback(m.observe, m.activeGauge)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetActiveCampaignSource sets where the active campaign gauge reads from
func (m *StoreMetrics) SetActiveCampaignSource(src ActiveCampaignCounter) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
}

func (m *StoreMetrics) observe(ctx context.Context, o metric.Observer) error {
	m.mu.Lock()
	src := m.source
	m.mu.Unlock()
	if src == nil {
		return nil
	}
	n, err := src.CountActive(ctx)
	if err != nil {
		m.logger.Warn("count active campaigns", zap.Error(err))
		return nil
	}
	o.ObserveInt64(m.activeGauge, n)
	return nil
}

// Close unregisters the gauge callback
func (m *StoreMetrics) Close() error {
	if m == nil || m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}

// RecordOrderCreated counts a new order. source is "shop" or "campaign".
func (m *StoreMetrics) RecordOrderCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc(ctx, AttrSource.String(source))
}

// RecordRevenue adds a captured payment amount
func (m *StoreMetrics) RecordRevenue(ctx context.Context, kind string, cents int64) {
	if m == nil || cents <= 0 {
		return
	}
	m.revenue.Add(ctx, cents, AttrPaymentKind.String(kind))
}

// RecordCampaignOrder counts a participant order
func (m *StoreMetrics) RecordCampaignOrder(ctx context.Context, paymentStyle string) {
	if m == nil {
		return
	}
	m.campaignOrders.Inc(ctx, AttrPaymentStyle.String(paymentStyle))
}

// RecordCampaignTransition counts a campaign moving to status
func (m *StoreMetrics) RecordCampaignTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.campaignTransition.Inc(ctx, AttrStatus.String(status))
}

// RecordPayment counts a payment intent outcome
func (m *StoreMetrics) RecordPayment(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.payments.Inc(ctx, AttrPaymentKind.String(kind), AttrOutcome.String(outcome))
}

// RecordRefund counts a refund and its amount
func (m *StoreMetrics) RecordRefund(ctx context.Context, cents int64) {
	if m == nil {
		return
	}
	m.refunds.Inc(ctx)
	m.refundedAmount.Add(ctx, cents)
}

// RecordWebhook counts a webhook delivery
func (m *StoreMetrics) RecordWebhook(ctx context.Context, eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.Inc(ctx, AttrEventType.String(eventType), AttrOutcome.String(outcome))
}

// RecordVectorize counts a finished vectorization job and its duration
func (m *StoreMetrics) RecordVectorize(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attr := AttrOutcome.String(outcome)
	m.vectorizeJobs.Inc(ctx, attr)
	m.vectorizeDuration.RecordDuration(ctx, d, attr)
}

// RecordGeneration counts an AI generation request
func (m *StoreMetrics) RecordGeneration(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.generations.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordDocument counts a rendered PDF
func (m *StoreMetrics) RecordDocument(ctx context.Context, document, outcome string) {
	if m == nil {
		return
	}
	m.documents.Inc(ctx, AttrDocument.String(document), AttrOutcome.String(outcome))
}

// OutcomeOf maps err to OutcomeSuccess or OutcomeFailure
func OutcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
