package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Runner is the part of pipeline.Processor the queue drives.
type Runner interface {
	ActiveRuleSet(ctx context.Context, tenantID uuid.UUID) (*entity.RuleSet, error)
	Enqueue(ctx context.Context, tenantID uuid.UUID, rs *entity.RuleSet) (*entity.JobRun, error)
	Execute(ctx context.Context, job *entity.JobRun, rs *entity.RuleSet) (*entity.JobRun, error)
}

// DoneFunc observes every finished run, successful or not.
type DoneFunc func(ctx context.Context, run *entity.JobRun, err error)

// ValidationQueue runs queued validations on a fixed worker pool, at most one
// per tenant at a time.
type ValidationQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDone  DoneFunc

	ch    chan Job
	slots chan struct{}
	wg    sync.WaitGroup
	once  sync.Once

	// mu guards closed and inflight; senders hold it shared while sending on ch.
	mu       sync.RWMutex
	closed   bool
	inflight map[uuid.UUID]bool
	imu      sync.Mutex
}

var _ Queue = (*ValidationQueue)(nil)

type Option func(*ValidationQueue)

func WithWorkers(n int) Option {
	return func(q *ValidationQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ValidationQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithRunTimeout(d time.Duration) Option {
	return func(q *ValidationQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithOnDone(fn DoneFunc) Option {
	return func(q *ValidationQueue) { q.onDone = fn }
}

func NewValidationQueue(runner Runner, logger *slog.Logger, opts ...Option) *ValidationQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ValidationQueue{
		runner:   runner,
		logger:   logger,
		workers:  2,
		timeout:  10 * time.Minute,
		ch:       make(chan Job, 64),
		inflight: map[uuid.UUID]bool{},
	}
	for _, o := range opts {
		o(q)
	}
	q.slots = make(chan struct{}, cap(q.ch))
	q.start()
	return q
}

func (q *ValidationQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.start", "worker_id", workerID)
				for job := range q.ch {
					<-q.slots
					q.run(workerID, job)
				}
				q.logger.Info("queue.worker.stop", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ValidationQueue) run(workerID int, job Job) {
	defer q.release(job.Run.TenantID)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	waited := time.Since(job.SubmittedAt)
	run, err := q.runner.Execute(ctx, job.Run, job.RuleSet)
	if run == nil {
		run = job.Run
	}
	if err != nil {
		q.logger.Error("queue.run.failed", "worker_id", workerID, "job_id", run.ID, "tenant_id", run.TenantID, "waited_ms", waited.Milliseconds(), "error", err)
	} else {
		q.logger.Info("queue.run.ok", "worker_id", workerID, "job_id", run.ID, "tenant_id", run.TenantID, "waited_ms", waited.Milliseconds())
	}
	if q.onDone != nil {
		q.onDone(context.Background(), run, err)
	}
}

func (q *ValidationQueue) claim(tenantID uuid.UUID) bool {
	q.imu.Lock()
	defer q.imu.Unlock()
	if q.inflight[tenantID] {
		return false
	}
	q.inflight[tenantID] = true
	return true
}

func (q *ValidationQueue) release(tenantID uuid.UUID) {
	q.imu.Lock()
	defer q.imu.Unlock()
	delete(q.inflight, tenantID)
}

// Submit records a Pending run for the tenant's active rule set and queues it.
// A full queue is rejected before any run is recorded.
func (q *ValidationQueue) Submit(ctx context.Context, tenantID uuid.UUID) (*entity.JobRun, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	if !q.claim(tenantID) {
		q.logger.Info("queue.submit.skipped", "tenant_id", tenantID)
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrAlreadyQueued)
	}
	select {
	case q.slots <- struct{}{}:
	default:
		q.release(tenantID)
		q.logger.Warn("queue.full", "tenant_id", tenantID)
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrQueueFull)
	}

	rs, err := q.runner.ActiveRuleSet(ctx, tenantID)
	if err == nil {
		var run *entity.JobRun
		if run, err = q.runner.Enqueue(ctx, tenantID, rs); err == nil {
			// Never blocks: every send holds a slot and ch has one buffer per slot.
			q.ch <- Job{Run: run, RuleSet: rs, SubmittedAt: time.Now()}
			q.logger.Info("queue.submit.ok", "tenant_id", tenantID, "job_id", run.ID, "rule_set_id", run.RuleSetID)
			return run, nil
		}
	}
	<-q.slots
	q.release(tenantID)
	return nil, err
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (q *ValidationQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
