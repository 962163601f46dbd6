package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/inkthread/storefront/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

var testKafkaConfig = config.KafkaConfig{
	Enabled:      true,
	Brokers:      []string{"localhost:9092"},
	Topic:        "storefront.events",
	BatchTimeout: 20 * time.Millisecond,
}

func newRelay(t *testing.T, w *fakeWriter, opts ...RelayOption) *KafkaRelay {
	t.Helper()
	s := event.NewEventSerializer()
	event.RegisterAllEvents(s)
	r, err := NewKafkaRelay(testKafkaConfig, s, zap.NewNop(), append([]RelayOption{WithWriter(w)}, opts...)...)
	require.NoError(t, err)
	return r
}

func closedEvent() *campaign.CampaignStatusEvent {
	return &campaign.CampaignStatusEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(campaign.EventTypeCampaignClosed, campaign.AggregateTypeCampaign, uuid.New()),
		Slug:            "robotics-club",
		Status:          campaign.StatusClosed,
	}
}

func TestNewKafkaRelay_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaRelay(config.KafkaConfig{Topic: "t"}, event.NewEventSerializer(), zap.NewNop())
	assert.Error(t, err)
}

func TestKafkaRelay_PublishesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	r := newRelay(t, w)
	r.Start(context.Background())

	e := closedEvent()
	require.NoError(t, r.Handle(context.Background(), e))

	require.Eventually(t, func() bool { return len(w.written()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop(context.Background()))

	msg := w.written()[0]
	assert.Equal(t, e.AggregateID().String(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, campaign.EventTypeCampaignClosed, string(msg.Headers[0].Value))

	var env event.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, e.EventID(), env.EventID)
	assert.Equal(t, int64(1), r.Stats().Published)
	assert.True(t, w.closed)
}

func TestKafkaRelay_StopFlushesBuffer(t *testing.T) {
	w := &fakeWriter{}
	r := newRelay(t, w)
	r.batchTimeout = time.Hour
	r.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Handle(context.Background(), closedEvent()))
	}
	require.NoError(t, r.Stop(context.Background()))

	assert.Len(t, w.written(), 5)
}

func TestKafkaRelay_BufferFull(t *testing.T) {
	w := &fakeWriter{}
	r := newRelay(t, w, WithBufferSize(1))

	require.NoError(t, r.Handle(context.Background(), closedEvent()))
	assert.ErrorIs(t, r.Handle(context.Background(), closedEvent()), ErrRelayFull)
	assert.Equal(t, int64(1), r.Stats().Dropped)

	r.Start(context.Background())
	require.NoError(t, r.Stop(context.Background()))
}

func TestKafkaRelay_WriteFailureCounted(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	r := newRelay(t, w)
	r.Start(context.Background())

	require.NoError(t, r.Handle(context.Background(), closedEvent()))
	require.NoError(t, r.Stop(context.Background()))

	assert.Equal(t, int64(1), r.Stats().Failed)
	assert.Zero(t, r.Stats().Published)
}

func TestKafkaRelay_AsBusSubscriber(t *testing.T) {
	w := &fakeWriter{}
	r := newRelay(t, w)
	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(r)
	r.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), closedEvent(), closedEvent()))
	require.NoError(t, r.Stop(context.Background()))

	assert.Len(t, w.written(), 2)
}
