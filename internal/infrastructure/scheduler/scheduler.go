// Package scheduler runs background vectorization jobs and periodic
// campaign maintenance.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"go.uber.org/zap"
)

// JobStatus represents the status of a vectorization job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job tracks one vectorization request across retries
type Job struct {
	ID         uuid.UUID
	ArtworkID  uuid.UUID
	Status     JobStatus
	Attempts   int
	MaxRetries int
	Error      string
}

// ShouldRetry reports whether another attempt is allowed
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.Attempts <= j.MaxRetries
}

// VectorizeExecutor performs the work for a job. ProcessVectorization is
// called once per attempt; FailVectorization records the final failure.
type VectorizeExecutor interface {
	ProcessVectorization(ctx context.Context, artworkID uuid.UUID) error
	FailVectorization(ctx context.Context, artworkID uuid.UUID, reason string) error
}

// PoolConfig holds worker pool settings
type PoolConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// PoolConfigFrom maps application configuration onto PoolConfig
func PoolConfigFrom(cfg config.SchedulerConfig) PoolConfig {
	return PoolConfig{
		Workers:    cfg.Workers,
		QueueSize:  cfg.QueueSize,
		JobTimeout: cfg.JobTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
}

// Validate checks the pool configuration
func (c PoolConfig) Validate() error {
	if c.Workers <= 0 || c.QueueSize <= 0 {
		return fmt.Errorf("%w: workers and queue size must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: retries cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// VectorizePool is a fixed-size worker pool for vectorization jobs.
// Failed attempts are retried after RetryDelay doubled per attempt;
// errors wrapping artworkapp.ErrVectorizeRejected are not retried.
type VectorizePool struct {
	config   PoolConfig
	executor VectorizeExecutor
	logger   *zap.Logger

	mu      sync.RWMutex
	running bool
	jobs    chan *Job
	timers  map[uuid.UUID]*time.Timer
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewVectorizePool creates a pool; call Start before submitting
func NewVectorizePool(cfg PoolConfig, executor VectorizeExecutor, logger *zap.Logger) (*VectorizePool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &VectorizePool{
		config:   cfg,
		executor: executor,
		logger:   logger,
		timers:   make(map[uuid.UUID]*time.Timer),
	}, nil
}

// Start launches the workers
func (p *VectorizePool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.jobs = make(chan *Job, p.config.QueueSize)
	p.running = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i, p.jobs)
	}

	p.logger.Info("Vectorize pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize),
		zap.Duration("job_timeout", p.config.JobTimeout))
	return nil
}

// Stop cancels pending retries, lets queued jobs finish and waits for the
// workers, bounded by ctx.
func (p *VectorizePool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Vectorize pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("Vectorize pool stop timed out, in-flight jobs cancelled")
		return ctx.Err()
	}
}

// Submit implements artworkapp.JobQueue
func (p *VectorizePool) Submit(_ context.Context, req artworkapp.VectorizeJob) error {
	job := &Job{
		ID:         uuid.New(),
		ArtworkID:  req.ArtworkID,
		Status:     JobStatusPending,
		MaxRetries: p.config.MaxRetries,
	}
	if err := p.enqueue(job); err != nil {
		return err
	}
	p.logger.Debug("Vectorize job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("artwork_id", req.ArtworkID.String()))
	return nil
}

func (p *VectorizePool) enqueue(job *Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return ErrSchedulerNotRunning
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (p *VectorizePool) worker(ctx context.Context, workerID int, jobs <-chan *Job) {
	defer p.wg.Done()
	for job := range jobs {
		p.process(ctx, job, workerID)
	}
}

func (p *VectorizePool) process(ctx context.Context, job *Job, workerID int) {
	job.Status = JobStatusRunning
	job.Attempts++

	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	err := p.executor.ProcessVectorization(jobCtx, job.ArtworkID)
	cancel()

	if err == nil {
		job.Status = JobStatusSuccess
		p.logger.Info("Vectorize job completed",
			zap.Int("worker_id", workerID),
			zap.String("artwork_id", job.ArtworkID.String()),
			zap.Int("attempts", job.Attempts))
		return
	}

	job.Status = JobStatusFailed
	job.Error = err.Error()
	p.logger.Warn("Vectorize attempt failed",
		zap.Int("worker_id", workerID),
		zap.String("artwork_id", job.ArtworkID.String()),
		zap.Int("attempt", job.Attempts),
		zap.Error(err))

	if !errors.Is(err, artworkapp.ErrVectorizeRejected) && job.ShouldRetry() && ctx.Err() == nil {
		if p.scheduleRetry(job) {
			return
		}
	}
	p.fail(ctx, job)
}

// scheduleRetry arms a timer that re-enqueues job; false when the pool is
// stopping. A job that cannot be re-queued is recorded as failed.
func (p *VectorizePool) scheduleRetry(job *Job) bool {
	delay := p.config.RetryDelay << (job.Attempts - 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	job.Status = JobStatusPending
	p.timers[job.ID] = time.AfterFunc(delay, func() {
		p.mu.Lock()
		delete(p.timers, job.ID)
		p.mu.Unlock()
		if err := p.enqueue(job); err != nil {
			p.logger.Warn("Failed to re-queue vectorize job",
				zap.String("artwork_id", job.ArtworkID.String()),
				zap.Error(err))
			job.Status = JobStatusFailed
			p.fail(context.Background(), job)
		}
	})
	p.logger.Info("Vectorize job scheduled for retry",
		zap.String("artwork_id", job.ArtworkID.String()),
		zap.Int("attempt", job.Attempts),
		zap.Duration("delay", delay))
	return true
}

func (p *VectorizePool) fail(ctx context.Context, job *Job) {
	// the record must be marked even when the pool is shutting down
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.executor.FailVectorization(failCtx, job.ArtworkID, job.Error); err != nil {
		p.logger.Error("Failed to record vectorize failure",
			zap.String("artwork_id", job.ArtworkID.String()),
			zap.Error(err))
	}
}

// Pending returns the number of queued jobs plus armed retries
func (p *VectorizePool) Pending() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.jobs == nil {
		return 0
	}
	return len(p.jobs) + len(p.timers)
}

var _ artworkapp.JobQueue = (*VectorizePool)(nil)
