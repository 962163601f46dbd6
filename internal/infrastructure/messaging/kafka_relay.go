// Package messaging relays domain events to Kafka for downstream consumers
// such as the print shop's production planner.
package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/inkthread/storefront/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 1024
	defaultBatchSize  = 100
)

// ErrRelayFull is returned when the relay buffer cannot take more events
var ErrRelayFull = errors.New("kafka relay buffer is full")

// messageWriter is the subset of *kafka.Writer the relay uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RelayStats counts relay outcomes
type RelayStats struct {
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

// KafkaRelay is a wildcard event handler that forwards every domain event
// to one topic, keyed by aggregate ID so per-aggregate order is kept.
// Handle never blocks on the broker: events are buffered and written in
// batches by a background goroutine.
type KafkaRelay struct {
	writer     messageWriter
	serializer *event.EventSerializer
	logger     *zap.Logger

	buffer       chan kafka.Message
	batchSize    int
	batchTimeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// RelayOption configures a KafkaRelay
type RelayOption func(*KafkaRelay)

// WithWriter replaces the kafka writer, mainly for tests
func WithWriter(w messageWriter) RelayOption {
	return func(r *KafkaRelay) {
		r.writer = w
	}
}

// WithBufferSize sets how many events may wait for the writer
func WithBufferSize(n int) RelayOption {
	return func(r *KafkaRelay) {
		if n > 0 {
			r.buffer = make(chan kafka.Message, n)
		}
	}
}

// NewKafkaRelay creates a relay for cfg.Topic on cfg.Brokers
func NewKafkaRelay(cfg config.KafkaConfig, serializer *event.EventSerializer, logger *zap.Logger, opts ...RelayOption) (*KafkaRelay, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	r := &KafkaRelay{
		serializer:   serializer,
		logger:       logger,
		buffer:       make(chan kafka.Message, defaultBufferSize),
		batchSize:    defaultBatchSize,
		batchTimeout: batchTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.writer == nil {
		r.writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		}
	}
	return r, nil
}

// EventTypes is empty so the relay receives every event
func (r *KafkaRelay) EventTypes() []string {
	return nil
}

// Handle enqueues the event envelope
func (r *KafkaRelay) Handle(ctx context.Context, e shared.DomainEvent) error {
	value, err := r.serializer.Wrap(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.AggregateID().String()),
		Value: value,
		Time:  e.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType())},
			{Key: "event_id", Value: []byte(e.EventID().String())},
		},
	}

	select {
	case r.buffer <- msg:
		return nil
	default:
		r.dropped.Add(1)
		return ErrRelayFull
	}
}

// Start launches the writer goroutine
func (r *KafkaRelay) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.run()
		r.logger.Info("Kafka relay started")
	})
}

// Stop flushes buffered events and closes the writer. ctx bounds the flush.
func (r *KafkaRelay) Stop(ctx context.Context) error {
	var err error
	r.stopOnce.Do(func() {
		close(r.done)

		finished := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-ctx.Done():
			err = ctx.Err()
		}

		if cerr := r.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		stats := r.Stats()
		r.logger.Info("Kafka relay stopped",
			zap.Int64("published", stats.Published),
			zap.Int64("dropped", stats.Dropped),
			zap.Int64("failed", stats.Failed))
	})
	return err
}

// Stats returns a snapshot of relay counters
func (r *KafkaRelay) Stats() RelayStats {
	return RelayStats{
		Published: r.published.Load(),
		Dropped:   r.dropped.Load(),
		Failed:    r.failed.Load(),
	}
}

func (r *KafkaRelay) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.batchTimeout)
	defer ticker.Stop()

	batch := make([]kafka.Message, 0, r.batchSize)
	for {
		select {
		case msg := <-r.buffer:
			batch = append(batch, msg)
			if len(batch) >= r.batchSize {
				batch = r.flush(batch)
			}
		case <-ticker.C:
			batch = r.flush(batch)
		case <-r.done:
			// drain whatever is already queued
			for {
				select {
				case msg := <-r.buffer:
					batch = append(batch, msg)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

func (r *KafkaRelay) flush(batch []kafka.Message) []kafka.Message {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.writer.WriteMessages(ctx, batch...); err != nil {
		r.failed.Add(int64(len(batch)))
		r.logger.Error("Failed to publish events to Kafka",
			zap.Int("count", len(batch)),
			zap.Error(err))
	} else {
		r.published.Add(int64(len(batch)))
	}
	return batch[:0]
}

var _ shared.EventHandler = (*KafkaRelay)(nil)
