package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/service"
)

// Corrector handles the feedback half of the categorization loop: a manual
// category correction teaches a rule, so the next batch with the same
// description never reaches the classifier.
type Corrector struct {
	storage service.Storage
	logger  *slog.Logger
}

// NewCorrector creates a corrector.
func NewCorrector(storage service.Storage, logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{
		storage: storage,
		logger:  logger,
	}
}

// Correct overrides a transaction's category and upserts the matching rule.
// The rule upsert and the transaction update commit together; a failure
// between the two rolls both back. The keyword comes from the clean
// description, falling back to the original; a transaction with neither
// returns common.ErrNoDescription.
func (c *Corrector) Correct(ctx context.Context, userID, transactionID, newCategory string) (*model.Transaction, error) {
	if strings.TrimSpace(newCategory) == "" {
		return nil, common.NewUserError("category cannot be empty", nil)
	}

	tx, err := c.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin correction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := tx.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	keyword := strings.TrimSpace(txn.CleanDescription)
	if keyword == "" {
		keyword = strings.TrimSpace(txn.OriginalDescription)
	}
	if keyword == "" {
		return nil, common.ErrNoDescription
	}
	keyword = model.NormalizeKeyword(keyword)

	if err := tx.UpsertRule(ctx, userID, keyword, newCategory); err != nil {
		return nil, fmt.Errorf("failed to upsert rule: %w", err)
	}

	if err := tx.UpdateTransactionCategory(ctx, userID, transactionID, newCategory, true); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit correction: %w", err)
	}

	c.logger.Info("Category corrected, rule learned",
		"user_id", userID,
		"transaction_id", transactionID,
		"keyword", keyword,
		"category", newCategory)

	txn.Category = newCategory
	txn.Reviewed = true
	return txn, nil
}
