// Package inmemory provides channel-backed implementations of the job
// queue contracts, suitable for single-instance deployments and tests.
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartspend/smartspend/internal/jobs"
)

// Queue is an in-memory job publisher and consumer backed by a channel.
// It is safe for concurrent use. Batches are processed one at a time: the
// classifier client enforces an inter-call delay, so parallel workers would
// only queue up behind it.
type Queue struct {
	jobChan   chan *jobs.CategorizeBatchJob
	closeChan chan struct{}
	store     jobs.StatusStore
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
}

// NewQueue creates a new in-memory job queue. bufferSize determines how
// many jobs can be queued before PublishCategorizeBatch blocks.
func NewQueue(bufferSize int, store jobs.StatusStore) *Queue {
	return &Queue{
		jobChan:   make(chan *jobs.CategorizeBatchJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
	}
}

// PublishCategorizeBatch enqueues a batch job for asynchronous processing.
func (q *Queue) PublishCategorizeBatch(ctx context.Context, job *jobs.CategorizeBatchJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.Status = jobs.StatusPending

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start begins consuming jobs with a single worker goroutine.
func (q *Queue) Start(ctx context.Context, handler jobs.Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	q.wg.Add(1)
	go q.worker(ctx, handler)

	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry bookkeeping.
func (q *Queue) processJob(ctx context.Context, job *jobs.CategorizeBatchJob, handler jobs.Handler) {
	job.Status = jobs.StatusRunning
	now := time.Now().UTC()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.StatusRetrying

			backoff := time.Duration(job.RetryCount) * time.Second
			time.AfterFunc(backoff, func() {
				job.StartedAt = nil
				job.CompletedAt = nil
				if err := q.PublishCategorizeBatch(ctx, job); err != nil {
					// The queue went away during the backoff; without
					// this the job would sit in retrying forever.
					slog.Warn("Failed to requeue job, marking it failed",
						"job_id", job.JobID,
						"error", err)
					now := time.Now().UTC()
					job.CompletedAt = &now
					job.Status = jobs.StatusFailed
					job.Error = fmt.Sprintf("requeue for retry: %v", err)
					if q.store != nil {
						_ = q.store.SaveJob(context.Background(), job)
					}
				}
			})
		} else {
			job.Status = jobs.StatusFailed
		}
	} else {
		job.Status = jobs.StatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop stops the queue and waits for in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
