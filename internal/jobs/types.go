// Package jobs defines the background job contracts between the upload
// surface and the batch worker.
package jobs

import (
	"context"
	"time"

	"github.com/smartspend/smartspend/internal/engine"
)

// Status represents the current status of a job.
type Status string

const (
	// StatusPending indicates the job is waiting to be processed.
	StatusPending Status = "pending"
	// StatusRunning indicates the job is currently being processed.
	StatusRunning Status = "running"
	// StatusCompleted indicates the job completed successfully.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the job failed.
	StatusFailed Status = "failed"
	// StatusRetrying indicates the job failed and is being retried.
	StatusRetrying Status = "retrying"
)

// CategorizeBatchJob carries one uploaded CSV batch to the worker.
// Delivery is at-least-once; the processor's idempotency key makes
// re-delivery of the same payload safe.
type CategorizeBatchJob struct {
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	JobID       string           `json:"job_id"`
	UserID      string           `json:"user_id"`
	Error       string           `json:"error,omitempty"`
	Status      Status           `json:"status"`
	Rows        []engine.RawRow  `json:"rows"`
	RetryCount  int              `json:"retry_count"`
	MaxRetries  int              `json:"max_retries"`
}

// Publisher enqueues batch jobs. The abstraction allows swapping the
// in-memory queue for an external broker without touching callers.
type Publisher interface {
	PublishCategorizeBatch(ctx context.Context, job *CategorizeBatchJob) error
	Close() error
}

// Consumer delivers enqueued jobs to a handler.
type Consumer interface {
	// Start begins consuming jobs; the handler runs once per delivery.
	Start(ctx context.Context, handler Handler) error
	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// Handler processes one delivered job. A returned error marks the delivery
// failed and eligible for retry.
type Handler func(ctx context.Context, job *CategorizeBatchJob) error

// StatusStore tracks job state so the API can report progress.
type StatusStore interface {
	SaveJob(ctx context.Context, job *CategorizeBatchJob) error
	GetJob(ctx context.Context, jobID string) (*CategorizeBatchJob, error)
}
