package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/smartspend/smartspend/internal/service"
)

// IsBatchCompleted reports whether a batch with this idempotency key has
// already been fully processed.
func (s *SQLiteStorage) IsBatchCompleted(ctx context.Context, key string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(key, "key"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM batches WHERE key = ?)
	`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check batch completion: %w", err)
	}

	return exists, nil
}

// MarkBatchCompleted records a completed batch under its idempotency key.
// Recording the same key twice is harmless; the first record wins.
func (s *SQLiteStorage) MarkBatchCompleted(ctx context.Context, record *service.BatchRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := validateString(record.Key, "record.Key"); err != nil {
		return err
	}

	completedAt := record.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batches (key, user_id, job_id, processed, failed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, record.Key, record.UserID, record.JobID, record.Processed, record.Failed, completedAt)
	if err != nil {
		return fmt.Errorf("failed to record batch: %w", err)
	}

	return nil
}
