package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCatalogPrefix  = "catalog:garments:"
	defaultCatalogChannel = "catalog:invalidate"
	defaultScanBatchSize  = 100
	defaultCloseTimeout   = 5 * time.Second
)

// CatalogCacheStats reports hit and miss counts
type CatalogCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// ---------------------------------------------------------------------------
// Redis (L2)
// ---------------------------------------------------------------------------

// RedisCatalogCache stores garment listings in Redis as JSON and broadcasts
// invalidations over Pub/Sub so every instance can drop its local copy.
type RedisCatalogCache struct {
	client  *redis.Client
	prefix  string
	channel string
	logger  *zap.Logger

	mu       sync.Mutex
	cancelFn context.CancelFunc
	doneCh   chan struct{}
}

// RedisCatalogCacheOption is a functional option for RedisCatalogCache
type RedisCatalogCacheOption func(*RedisCatalogCache)

// WithCatalogLogger sets the logger
func WithCatalogLogger(logger *zap.Logger) RedisCatalogCacheOption {
	return func(c *RedisCatalogCache) {
		c.logger = logger
	}
}

// WithCatalogChannel sets the invalidation channel
func WithCatalogChannel(channel string) RedisCatalogCacheOption {
	return func(c *RedisCatalogCache) {
		c.channel = channel
	}
}

// NewRedisCatalogCache creates the cache on a shared client.
// The caller keeps ownership of the client.
func NewRedisCatalogCache(client *redis.Client, opts ...RedisCatalogCacheOption) *RedisCatalogCache {
	c := &RedisCatalogCache{
		client:  client,
		prefix:  defaultCatalogPrefix,
		channel: defaultCatalogChannel,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the cached value for key into dst. A miss returns false.
func (c *RedisCatalogCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read catalog cache: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("dropping undecodable catalog cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return false, nil
	}
	return true, nil
}

// Set stores value under key
func (c *RedisCatalogCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode catalog cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	return nil
}

// InvalidateAll deletes every listing and notifies subscribers
func (c *RedisCatalogCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan catalog cache: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete catalog cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if err := c.client.Publish(ctx, c.channel, time.Now().UnixNano()).Err(); err != nil {
		return fmt.Errorf("failed to publish catalog invalidation: %w", err)
	}
	return nil
}

// Subscribe calls onInvalidate for every invalidation broadcast until ctx
// is cancelled or Close is called. It blocks.
func (c *RedisCatalogCache) Subscribe(ctx context.Context, onInvalidate func()) error {
	c.mu.Lock()
	if c.cancelFn != nil {
		c.mu.Unlock()
		return fmt.Errorf("catalog invalidation subscription already running")
	}
	subCtx, cancel := context.WithCancel(ctx)
	c.cancelFn = cancel
	c.doneCh = make(chan struct{})
	done := c.doneCh
	c.mu.Unlock()
	defer close(done)

	pubsub := c.client.Subscribe(subCtx, c.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.channel, err)
	}
	c.logger.Info("subscribed to catalog invalidations", zap.String("channel", c.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			onInvalidate()
		}
	}
}

// Close stops a running subscription
func (c *RedisCatalogCache) Close() error {
	c.mu.Lock()
	cancel, done := c.cancelFn, c.doneCh
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-time.After(defaultCloseTimeout):
		c.logger.Warn("timeout waiting for catalog subscription to stop")
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory (L1 / no-Redis fallback)
// ---------------------------------------------------------------------------

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCatalogCache keeps encoded listings in process memory
type InMemoryCatalogCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	maxTTL  time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewInMemoryCatalogCache creates the cache. maxTTL caps entry lifetime so
// a local copy never outlives a missed invalidation for long; zero means
// the caller's TTL is used as is.
func NewInMemoryCatalogCache(maxTTL time.Duration) *InMemoryCatalogCache {
	return &InMemoryCatalogCache{
		entries: make(map[string]memoryEntry),
		maxTTL:  maxTTL,
		now:     time.Now,
	}
}

// Get decodes the cached value for key into dst
func (c *InMemoryCatalogCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		c.misses.Add(1)
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		c.misses.Add(1)
		return false, nil
	}
	c.hits.Add(1)
	return true, nil
}

// Set stores value under key
func (c *InMemoryCatalogCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode catalog cache entry: %w", err)
	}
	if c.maxTTL > 0 && (ttl <= 0 || ttl > c.maxTTL) {
		ttl = c.maxTTL
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// InvalidateAll drops every entry
func (c *InMemoryCatalogCache) InvalidateAll(context.Context) error {
	c.Clear()
	return nil
}

// Clear drops every entry
func (c *InMemoryCatalogCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}

// Stats returns hit and miss counts
func (c *InMemoryCatalogCache) Stats() CatalogCacheStats {
	return CatalogCacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// ---------------------------------------------------------------------------
// Tiered
// ---------------------------------------------------------------------------

// TieredCatalogCache reads through a local L1 into Redis (L2). Writes go to
// both; invalidations clear L2 and are broadcast so every L1 is dropped.
type TieredCatalogCache struct {
	l1     *InMemoryCatalogCache
	l2     *RedisCatalogCache
	logger *zap.Logger
}

// NewTieredCatalogCache combines the two tiers
func NewTieredCatalogCache(l1 *InMemoryCatalogCache, l2 *RedisCatalogCache, logger *zap.Logger) *TieredCatalogCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredCatalogCache{l1: l1, l2: l2, logger: logger}
}

// StartInvalidationSubscription clears L1 whenever any instance invalidates
func (c *TieredCatalogCache) StartInvalidationSubscription(ctx context.Context) {
	go func() {
		if err := c.l2.Subscribe(ctx, c.l1.Clear); err != nil {
			c.logger.Error("catalog invalidation subscription ended", zap.Error(err))
		}
	}()
}

// Get checks L1, then L2. L2 hits are copied into L1.
func (c *TieredCatalogCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if ok, _ := c.l1.Get(ctx, key, dst); ok {
		return true, nil
	}
	ok, err := c.l2.Get(ctx, key, dst)
	if err != nil || !ok {
		return false, err
	}
	if err := c.l1.Set(ctx, key, dst, 0); err != nil {
		c.logger.Debug("failed to fill L1 catalog cache", zap.Error(err))
	}
	return true, nil
}

// Set writes both tiers
func (c *TieredCatalogCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.l2.Set(ctx, key, value, ttl)
}

// InvalidateAll clears both tiers and broadcasts to other instances
func (c *TieredCatalogCache) InvalidateAll(ctx context.Context) error {
	c.l1.Clear()
	return c.l2.InvalidateAll(ctx)
}

// Close stops the invalidation subscription
func (c *TieredCatalogCache) Close() error {
	return c.l2.Close()
}
