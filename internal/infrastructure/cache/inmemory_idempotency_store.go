package cache

import (
	"context"
	"sync"
	"time"

	"github.com/inkthread/storefront/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed event IDs in a map.
// It is used when Redis is disabled and in tests; state is per process.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]time.Time // event ID -> expiry
	now       func() time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryIdempotencyOption configures an InMemoryIdempotencyStore
type InMemoryIdempotencyOption func(*inMemoryIdempotencySettings)

type inMemoryIdempotencySettings struct {
	sweepInterval time.Duration
}

// WithSweepInterval sets how often expired IDs are purged
func WithSweepInterval(d time.Duration) InMemoryIdempotencyOption {
	return func(s *inMemoryIdempotencySettings) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper.
// Call Close to stop the sweeper.
func NewInMemoryIdempotencyStore(opts ...InMemoryIdempotencyOption) *InMemoryIdempotencyStore {
	settings := inMemoryIdempotencySettings{sweepInterval: defaultSweepInterval}
	for _, opt := range opts {
		opt(&settings)
	}

	s := &InMemoryIdempotencyStore{
		seen:   make(map[string]time.Time),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(settings.sweepInterval)
	return s
}

// MarkProcessed records eventID unless a live record exists
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.seen[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.seen[eventID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether a live record exists for eventID
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.seen[eventID]
	return ok && s.now().Before(exp), nil
}

// Forget removes a recorded event
func (s *InMemoryIdempotencyStore) Forget(_ context.Context, eventID string) error {
	s.mu.Lock()
	delete(s.seen, eventID)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored IDs, expired or not
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, id)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
