package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetup_AllDisabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "storefront"}, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, p.Meter("test"))
	assert.NotNil(t, p.Tracer("test"))
	assert.False(t, p.LogCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_ProfilingRequiresAddress(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName:      "storefront",
		ProfilingEnabled: true,
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}

func TestWithLabels_RunsFunction(t *testing.T) {
	ran := 0
	WithLabels(context.Background(), map[string]string{LabelRoute: "/api/orders"}, func(context.Context) { ran++ })
	WithLabels(context.Background(), map[string]string{LabelRoute: ""}, func(context.Context) { ran++ })
	assert.Equal(t, 2, ran)
}

type staticCounter struct {
	n   int64
	err error
}

func (s staticCounter) CountActive(context.Context) (int64, error) { return s.n, s.err }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics, attr attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attr.Key); ok && v == attr.Value {
			total += dp.Value
		}
	}
	return total
}

func TestStoreMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewStoreMetrics(mp.Meter("store"), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	m.SetActiveCampaignSource(staticCounter{n: 4})

	ctx := context.Background()
	m.RecordOrderCreated(ctx, "shop")
	m.RecordOrderCreated(ctx, "shop")
	m.RecordOrderCreated(ctx, "campaign")
	m.RecordRevenue(ctx, "shop_order", 2500)
	m.RecordRevenue(ctx, "shop_order", 0)
	m.RecordPayment(ctx, "campaign_order", OutcomeFailure)
	m.RecordRefund(ctx, 700)
	m.RecordWebhook(ctx, "payment_intent.succeeded", OutcomeSkipped)
	m.RecordVectorize(ctx, OutcomeSuccess, 3*time.Second)
	m.RecordDocument(ctx, "packing_slip", OutcomeSuccess)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["store.orders.created"], AttrSource.String("shop")))
	assert.Equal(t, int64(1), sumOf(t, got["store.orders.created"], AttrSource.String("campaign")))
	assert.Equal(t, int64(2500), sumOf(t, got["store.revenue"], AttrPaymentKind.String("shop_order")))
	assert.Equal(t, int64(1), sumOf(t, got["store.payments"], AttrOutcome.String(OutcomeFailure)))
	assert.Equal(t, int64(1), sumOf(t, got["store.webhooks"], AttrOutcome.String(OutcomeSkipped)))
	assert.Equal(t, int64(1), sumOf(t, got["store.documents.rendered"], AttrDocument.String("packing_slip")))

	refunded, ok := got["store.refunds.amount"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, refunded.DataPoints, 1)
	assert.Equal(t, int64(700), refunded.DataPoints[0].Value)

	hist, ok := got["store.vectorize.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	gauge, ok := got["store.campaigns.active"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(4), gauge.DataPoints[0].Value)
}

func TestStoreMetrics_GaugeSourceError(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewStoreMetrics(mp.Meter("store"), nil)
	require.NoError(t, err)
	m.SetActiveCampaignSource(staticCounter{err: errors.New("db down")})

	got := collect(t, reader)
	_, ok := got["store.campaigns.active"]
	assert.False(t, ok)
}

func TestStoreMetrics_NilSafe(t *testing.T) {
	var m *StoreMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordOrderCreated(ctx, "shop")
		m.RecordRevenue(ctx, "shop_order", 100)
		m.RecordCampaignOrder(ctx, "everyone_pays")
		m.RecordCampaignTransition(ctx, "closed")
		m.RecordPayment(ctx, "shop_order", OutcomeSuccess)
		m.RecordRefund(ctx, 100)
		m.RecordWebhook(ctx, "x", OutcomeSuccess)
		m.RecordVectorize(ctx, OutcomeSuccess, time.Second)
		m.RecordGeneration(ctx, OutcomeSuccess)
		m.RecordDocument(ctx, "order_sheet", OutcomeSuccess)
		m.SetActiveCampaignSource(staticCounter{})
	})
	assert.NoError(t, m.Close())
}

func TestStoreMetrics_NoopMeter(t *testing.T) {
	m, err := NewStoreMetrics(noop.NewMeterProvider().Meter("test"), zap.NewNop())
	require.NoError(t, err)
	m.RecordGeneration(context.Background(), OutcomeRejected)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, OutcomeOf(nil))
	assert.Equal(t, OutcomeFailure, OutcomeOf(errors.New("x")))
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

type testRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testRow{}))
	return db
}

func TestInstrumentGorm_Disabled(t *testing.T) {
	rec := withRecorder(t)
	db := openTestDB(t)
	require.NoError(t, InstrumentGorm(db, config.TelemetryConfig{}, zap.NewNop()))

	require.NoError(t, db.WithContext(context.Background()).Create(&testRow{Name: "a"}).Error)
	assert.Empty(t, rec.Ended())
}

func TestInstrumentGorm_EmitsSpansAndFlagsSlowQueries(t *testing.T) {
	rec := withRecorder(t)
	core, logs := observer.New(zapcore.WarnLevel)
	db := openTestDB(t)
	require.NoError(t, InstrumentGorm(db, config.TelemetryConfig{
		DBTraceEnabled:    true,
		DBSlowQueryThresh: time.Nanosecond,
	}, zap.New(core)))

	ctx, span := StartServiceSpan(context.Background(), "order", "checkout")
	require.NoError(t, db.WithContext(ctx).Create(&testRow{Name: "a"}).Error)
	var rows []testRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	assert.GreaterOrEqual(t, len(rec.Ended()), 3)
	slow := logs.FilterMessage("slow query").All()
	require.NotEmpty(t, slow)
	assert.Equal(t, TraceID(ctx), slow[0].ContextMap()["trace_id"])
}

func TestStartServiceSpan_Attributes(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "campaign", "pay",
		SpanAttrCampaign, "spring-shirts",
		SpanAttrAmountCents, int64(4200),
		"ignored")
	assert.NotEmpty(t, TraceID(ctx))
	SetAttributes(span, "retry", true)
	RecordError(span, nil)
	RecordError(span, errors.New("card declined"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "campaign.pay", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Contains(t, s.Attributes(), attribute.String(SpanAttrCampaign, "spring-shirts"))
	assert.Contains(t, s.Attributes(), attribute.Int64(SpanAttrAmountCents, 4200))
	assert.Contains(t, s.Attributes(), attribute.Bool("retry", true))
	assert.Len(t, s.Events(), 1)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}
