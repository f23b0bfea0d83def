package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is one queued extraction request. Extend as needed later (priority,
// retry budget, trace propagation).
type Job struct {
	Study       string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes one job; errors are logged, not retried.
type Handler func(ctx context.Context, job Job) error

var ErrQueueClosed = errors.New("queue closed")

// workerQueue is a bounded channel-backed Queue with a fixed worker pool.
type workerQueue struct {
	jobs    chan Job
	handler Handler
	logger  *slog.Logger

	wg       sync.WaitGroup
	closeOne sync.Once
}

func NewWorkerQueue(workers, buffer int, handler Handler, logger *slog.Logger) Queue {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &workerQueue{
		jobs:    make(chan Job, buffer),
		handler: handler,
		logger:  logger,
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker(i)
	}
	return q
}

func (q *workerQueue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		start := time.Now()
		if err := q.handler(context.Background(), job); err != nil {
			q.logger.Error("async.job.failed",
				"worker", id,
				"study", job.Study,
				"trace_id", job.TraceID,
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			continue
		}
		q.logger.Info("async.job.done",
			"worker", id,
			"study", job.Study,
			"trace_id", job.TraceID,
			"queued_for_ms", start.Sub(job.SubmittedAt).Milliseconds(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (q *workerQueue) Enqueue(ctx context.Context, job Job) (err error) {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	// enqueue after Shutdown panics on the closed channel; report it as
	// ErrQueueClosed instead
	defer func() {
		if recover() != nil {
			err = ErrQueueClosed
		}
	}()
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits for in-flight jobs, bounded by
// ctx.
func (q *workerQueue) Shutdown(ctx context.Context) {
	q.closeOne.Do(func() { close(q.jobs) })
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.timeout", "error", ctx.Err())
	}
}
