// Package worker connects the job queue to the categorization engine.
package worker

import (
	"context"
	"log/slog"

	"github.com/smartspend/smartspend/internal/engine"
	"github.com/smartspend/smartspend/internal/jobs"
)

// NewCategorizeHandler returns the job handler that runs one uploaded batch
// through the batch processor. The processor owns idempotency, so a retried
// or re-delivered job is safe.
func NewCategorizeHandler(processor *engine.BatchProcessor, logger *slog.Logger) jobs.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, job *jobs.CategorizeBatchJob) error {
		stats, err := processor.Process(ctx, job.JobID, job.UserID, job.Rows)
		if err != nil {
			return err
		}

		logger.Info("Batch job processed",
			"job_id", job.JobID,
			"user_id", job.UserID,
			"rows", stats.Rows,
			"persisted", stats.Persisted,
			"failed", stats.Failed,
			"rule_hits", stats.RuleHits,
			"classifier_calls", stats.ClassifierCalls,
			"fallbacks", stats.Fallbacks,
			"skipped", stats.Skipped)

		return nil
	}
}
