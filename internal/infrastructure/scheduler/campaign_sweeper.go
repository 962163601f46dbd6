package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CampaignCloser closes campaigns whose deadline has passed
type CampaignCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// CampaignSweeper runs CloseExpired on a cron schedule
type CampaignSweeper struct {
	closer   CampaignCloser
	schedule string
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	now     func() time.Time
}

// NewCampaignSweeper parses schedule (standard five-field spec or
// descriptors such as "@every 1m") and returns a stopped sweeper.
func NewCampaignSweeper(closer CampaignCloser, schedule string, timeout time.Duration, logger *zap.Logger) (*CampaignSweeper, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	s := &CampaignSweeper{
		closer:   closer,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:      time.Now,
	}
	id, err := s.cron.AddFunc(schedule, s.scheduledRun)
	if err != nil {
		return nil, err
	}
	s.entryID = id
	return s, nil
}

// Start begins firing on the schedule
func (s *CampaignSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true
	s.logger.Info("Campaign sweeper started", zap.String("schedule", s.schedule))
}

// Stop cancels a running sweep and waits for it to return
func (s *CampaignSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Campaign sweeper stopped")
}

// NextRun returns the next scheduled fire time, zero when stopped
func (s *CampaignSweeper) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// RunOnce performs one sweep immediately
func (s *CampaignSweeper) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	closed, err := s.closer.CloseExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Campaign sweep failed", zap.Error(err))
		return closed, err
	}
	if closed > 0 {
		s.logger.Info("Closed expired campaigns", zap.Int("count", closed))
	}
	return closed, nil
}

func (s *CampaignSweeper) scheduledRun() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	_, _ = s.RunOnce(ctx)
}
