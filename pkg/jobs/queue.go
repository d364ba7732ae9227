package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Enqueue once the queue is draining or stopped.
var ErrClosed = errors.New("queue closed")

// Job is one unit of background work carrying a typed payload.
type Job[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler[T any] func(context.Context, Job[T]) error

// ExhaustedFunc is invoked once a job has failed more than MaxRetries times.
type ExhaustedFunc[T any] func(Job[T], error)

// QueueConfig configures worker pool behaviour.
type QueueConfig[T any] struct {
	Workers     int
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	Logger      *zap.Logger
	OnExhausted ExhaustedFunc[T]
}

// Queue is an in-memory worker pool. A job counts as outstanding from Enqueue until it
// succeeds or exhausts its retries; Drain waits for that count to reach zero.
type Queue[T any] struct {
	name    string
	handler Handler[T]

	workers     int
	maxRetries  int
	retryDelay  time.Duration
	logger      *zap.Logger
	onExhausted ExhaustedFunc[T]

	jobs   chan Job[T]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	started     bool
	stopped     bool
	draining    bool
	outstanding int
	idle        chan struct{}
}

// NewQueue builds a new queue with the provided handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig[T]) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:        name,
		handler:     handler,
		workers:     cfg.Workers,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger,
		onExhausted: cfg.OnExhausted,
		jobs:        make(chan Job[T], cfg.BufferSize),
		idle:        make(chan struct{}),
	}
}

// Start begins worker consumption. Safe to call once. Cancelling ctx is a hard stop;
// callers that want buffered work finished should call Drain instead.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them and any pending retry timers to exit.
// Outstanding jobs are abandoned.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.draining = true
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Drain refuses new jobs, waits for outstanding ones (retries included) to finish and
// then stops the workers. When ctx ends first the remaining jobs are abandoned and
// ctx's error is returned.
func (q *Queue[T]) Drain(ctx context.Context) error {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return nil
	}
	if !q.draining {
		q.draining = true
		if q.outstanding == 0 {
			close(q.idle)
		}
	}
	pending := q.outstanding
	q.mu.Unlock()

	q.logger.Sugar().Infow("queue draining", "queue", q.name, "pending", pending)
	var err error
	select {
	case <-q.idle:
	case <-ctx.Done():
		err = ctx.Err()
		q.logger.Sugar().Warnw("queue drain cut short", "queue", q.name, "pending", q.Pending(), "error", err)
	}
	q.Stop()
	return err
}

// Pending reports how many jobs have been accepted but not yet finished.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

// Enqueue pushes a job onto the queue.
func (q *Queue[T]) Enqueue(job Job[T]) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	if q.draining {
		q.mu.Unlock()
		return fmt.Errorf("queue %s: %w", q.name, ErrClosed)
	}
	q.outstanding++
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if err := q.push(job); err != nil {
		q.finish()
		return err
	}
	return nil
}

func (q *Queue[T]) push(job Job[T]) error {
	select {
	case <-q.ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, q.ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue[T]) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outstanding--
	if q.draining && q.outstanding == 0 && !q.stopped {
		close(q.idle)
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			q.finish()
		}
	}
}

func (q *Queue[T]) handleFailure(job Job[T], err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job exceeded retries", "queue", q.name, "job_id", job.ID, "error", err)
		if q.onExhausted != nil {
			q.onExhausted(job, err)
		}
		q.finish()
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "attempt", job.Attempt, "error", err)

	q.wg.Add(1)
	go func(j Job[T]) {
		defer q.wg.Done()
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.push(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}
