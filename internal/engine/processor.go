package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/service"
)

// BatchStats summarizes one batch run.
type BatchStats struct {
	Rows            int
	Persisted       int
	Failed          int
	RuleHits        int
	ClassifierCalls int
	Fallbacks       int
	Skipped         bool // batch was already completed under its idempotency key
}

// BatchProcessor consumes one uploaded batch for one user and persists the
// categorized rows. Rows are processed sequentially: the classifier client
// enforces an inter-call delay, and each row commits on its own so a crash
// mid-batch keeps the rows already written.
type BatchProcessor struct {
	storage     service.Storage
	categorizer *Categorizer
	logger      *slog.Logger
	now         func() time.Time
	progress    func(done, total int)
}

// SetProgress installs a callback invoked after each row, whether it
// persisted or failed. Used by the CLI import to drive a progress bar.
func (p *BatchProcessor) SetProgress(fn func(done, total int)) {
	p.progress = fn
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(storage service.Storage, categorizer *Categorizer, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		storage:     storage,
		categorizer: categorizer,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Process applies categorization to every row of a batch, best-effort: a
// row that fails to persist is logged and skipped, never aborting the rest.
// The only input that fails the whole batch is an unparseable user ID, which
// is rejected before any row is touched. Re-delivery of an already completed
// batch (same idempotency key) is skipped.
func (p *BatchProcessor) Process(ctx context.Context, jobID, userID string, rows []RawRow) (BatchStats, error) {
	stats := BatchStats{Rows: len(rows)}

	if _, err := uuid.Parse(userID); err != nil {
		return stats, fmt.Errorf("%w: user ID %q: %v", common.ErrInvalidBatch, userID, err)
	}

	key := BatchKey(userID, rows)
	done, err := p.storage.IsBatchCompleted(ctx, key)
	if err != nil {
		return stats, fmt.Errorf("failed to check batch completion: %w", err)
	}
	if done {
		p.logger.Info("Batch already completed, skipping",
			"user_id", userID,
			"batch_key", key)
		stats.Skipped = true
		return stats, nil
	}

	rules, err := p.storage.GetRules(ctx, userID)
	if err != nil {
		return stats, fmt.Errorf("failed to load rules: %w", err)
	}

	p.logger.Info("Processing batch",
		"user_id", userID,
		"rows", len(rows),
		"rules", len(rules))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := p.processRow(ctx, userID, rules, row, &stats); err != nil {
			// Best effort: log, skip the row, keep the batch going.
			common.LogError(err, "Failed to process row", common.Fields{
				"user_id": userID,
				"row":     i + 1,
			})
			stats.Failed++
		}

		if p.progress != nil {
			p.progress(i+1, len(rows))
		}
	}

	record := &service.BatchRecord{
		Key:       key,
		UserID:    userID,
		JobID:     jobID,
		Processed: stats.Persisted,
		Failed:    stats.Failed,
	}
	if err := p.storage.MarkBatchCompleted(ctx, record); err != nil {
		return stats, fmt.Errorf("failed to record batch completion: %w", err)
	}

	p.logger.Info("Batch finished",
		"user_id", userID,
		"persisted", stats.Persisted,
		"failed", stats.Failed)

	return stats, nil
}

func (p *BatchProcessor) processRow(ctx context.Context, userID string, rules map[string]string, row RawRow, stats *BatchStats) error {
	parsed := ParseRow(row, p.now)

	result := p.categorizer.Categorize(ctx, rules, parsed.CleanDescription)
	switch result.Source {
	case model.SourceRule:
		stats.RuleHits++
	case model.SourceClassifier:
		stats.ClassifierCalls++
	case model.SourceFallback:
		stats.Fallbacks++
	}

	txn := &model.Transaction{
		ID:                  model.NewTransactionID(),
		UserID:              userID,
		Date:                parsed.Date,
		OriginalDescription: parsed.OriginalDescription,
		CleanDescription:    parsed.CleanDescription,
		Amount:              parsed.Amount,
		Category:            result.Category,
	}

	if err := p.storage.SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	stats.Persisted++

	p.logger.Debug("Row persisted",
		"user_id", userID,
		"category", result.Category,
		"source", string(result.Source))

	return nil
}

// BatchKey derives the idempotency key for a batch: a digest over the user
// and the canonicalized rows, so a re-delivered payload maps to the same key.
func BatchKey(userID string, rows []RawRow) string {
	h := sha256.New()
	fmt.Fprintf(h, "user:%s\n", userID)

	for i, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(h, "row:%d\n", i)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%s\n", k, row[k])
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
