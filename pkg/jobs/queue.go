package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TypePurgeExports drops the cached exports of a slot store that no longer exists.
const TypePurgeExports = "exports.purge"

// ErrNotRunning is returned by Enqueue before Start or after Stop.
var ErrNotRunning = errors.New("queue not running")

// Job is a unit of background work scoped to one slot store.
type Job struct {
	ID       string
	Type     string
	StoreID  string
	Attempt  int
	Enqueued time.Time
}

func (j Job) key() string {
	if j.StoreID == "" {
		return ""
	}
	return j.Type + "/" + j.StoreID
}

// Handler processes a job. Attempt is 1 on the first call.
type Handler func(context.Context, Job) error

// QueueConfig configures a Queue.
type QueueConfig struct {
	Workers     int
	BufferSize  int
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger
}

// Queue runs jobs on a fixed set of goroutines. A job for a store that
// already has the same type of job waiting is merged into it. Failed jobs are
// retried by the same worker with doubling backoff; jobs still buffered when
// Stop is called are dropped.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs chan Job

	mu      sync.Mutex
	waiting map[string]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewQueue builds a queue around handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
		waiting: make(map[string]struct{}),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight jobs to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue schedules job. It blocks while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	key := job.key()
	if key != "" {
		if _, dup := q.waiting[key]; dup {
			q.mu.Unlock()
			q.logger.Debug("job merged", zap.String("type", job.Type), zap.String("store_id", job.StoreID))
			return nil
		}
		q.waiting[key] = struct{}{}
	}
	ctx := q.ctx
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		q.release(key)
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
}

func (q *Queue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.waiting, key)
	q.mu.Unlock()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			// A new request for the same store may queue again once this one runs.
			q.release(job.key())
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	delay := q.cfg.Backoff
	for {
		job.Attempt++
		err := q.handler(q.ctx, job)
		if err == nil {
			return
		}
		fields := []zap.Field{
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.String("store_id", job.StoreID),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		}
		if job.Attempt >= q.cfg.MaxAttempts {
			q.logger.Error("job abandoned", fields...)
			return
		}
		q.logger.Warn("job failed, retrying", append(fields, zap.Duration("backoff", delay))...)

		timer := time.NewTimer(delay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay *= 2
	}
}
