package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/service"
)

// SaveTransaction persists one transaction row. Each row is committed
// individually so a crash mid-batch keeps the rows already written.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, original_description, clean_description, amount, category, reviewed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.UserID,
		txn.Date,
		txn.OriginalDescription,
		txn.CleanDescription,
		txn.Amount.String(),
		txn.Category,
		txn.Reviewed,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID scoped to its owner.
// A row owned by another user is indistinguishable from a missing row.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) getTransactionTx(ctx context.Context, q queryable, userID, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, date, original_description, clean_description, amount, category, reviewed, created_at
		FROM transactions
		WHERE id = ? AND user_id = ?
	`, id, userID)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// ListTransactions returns a user's transactions, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, original_description, clean_description, amount, category, reviewed, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// GetTransactionsByPeriod returns a user's transactions with
// start <= date < end, oldest first.
func (s *SQLiteStorage) GetTransactionsByPeriod(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid period: start %s is not before end %s", start, end)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, original_description, clean_description, amount, category, reviewed, created_at
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date ASC
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

func (s *SQLiteStorage) updateTransactionCategoryTx(ctx context.Context, q queryable, userID, id, category string, reviewed bool) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, reviewed = ?
		WHERE id = ? AND user_id = ?
	`, category, reviewed, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn      model.Transaction
		amount   string
		category sql.NullString
	)

	if err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Date,
		&txn.OriginalDescription,
		&txn.CleanDescription,
		&amount,
		&category,
		&txn.Reviewed,
		&txn.CreatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
	}
	txn.Amount = parsed
	txn.Category = category.String

	return &txn, nil
}

func collectTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}
