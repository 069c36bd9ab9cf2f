package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspend/smartspend/internal/classifier"
	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/service"
	"github.com/smartspend/smartspend/internal/testutil"
)

func TestBatchProcessor_Process(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, store, "batch@example.com")

	require.NoError(t, store.UpsertRule(ctx, user.ID, "starbucks", "Dining"))

	client := &classifier.MockClient{Label: "Groceries"}
	processor := NewBatchProcessor(store, NewCategorizer(client, nil), nil)

	rows := []RawRow{
		{"description": "STARBUCKS STORE #123", "amount": "-5.75", "date": "2024-03-01"},
		{"description": "WHOLE FOODS MARKET", "amount": "-42.17", "date": "2024-03-02"},
		{"description": "TRADER JOES", "amount": "-31.02", "date": "2024-03-03"},
	}

	stats, err := processor.Process(ctx, "job-1", user.ID, rows)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 3, stats.Persisted)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.RuleHits)
	assert.Equal(t, 2, stats.ClassifierCalls)
	assert.Equal(t, 0, stats.Fallbacks)
	assert.False(t, stats.Skipped)
	assert.Equal(t, 2, client.Calls())

	txns, err := store.ListTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 3)

	byDesc := make(map[string]model.Transaction, len(txns))
	for _, txn := range txns {
		byDesc[txn.OriginalDescription] = txn
	}
	assert.Equal(t, "Dining", byDesc["STARBUCKS STORE #123"].Category)
	assert.Equal(t, "Groceries", byDesc["WHOLE FOODS MARKET"].Category)
	assert.Equal(t, "Groceries", byDesc["TRADER JOES"].Category)
}

// flakyStorage fails SaveTransaction for one description and delegates
// everything else to the wrapped store.
type flakyStorage struct {
	service.Storage
	failDescription string
}

func (s *flakyStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.OriginalDescription == s.failDescription {
		return errors.New("database is locked")
	}
	return s.Storage.SaveTransaction(ctx, txn)
}

func TestBatchProcessor_Process_RowFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, store, "flaky@example.com")

	client := &classifier.MockClient{Label: "Groceries"}
	flaky := &flakyStorage{Storage: store, failDescription: "CORRUPT ROW"}
	processor := NewBatchProcessor(flaky, NewCategorizer(client, nil), nil)

	rows := []RawRow{
		{"description": "WHOLE FOODS MARKET", "amount": "-42.17", "date": "2024-03-01"},
		{"description": "CORRUPT ROW", "amount": "-1.00", "date": "2024-03-02"},
		{"description": "TRADER JOES", "amount": "-31.02", "date": "2024-03-03"},
	}

	stats, err := processor.Process(ctx, "job-1", user.ID, rows)
	require.NoError(t, err, "one bad row must not fail the batch")

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.Persisted)
	assert.Equal(t, 1, stats.Failed)

	// The rows around the failure still land.
	txns, err := store.ListTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.NotEqual(t, "CORRUPT ROW", txn.OriginalDescription)
	}

	// The batch still completes under its idempotency key.
	done, err := store.IsBatchCompleted(ctx, BatchKey(user.ID, rows))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestBatchProcessor_Process_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, store, "idem@example.com")

	client := &classifier.MockClient{Label: "Dining"}
	processor := NewBatchProcessor(store, NewCategorizer(client, nil), nil)

	rows := []RawRow{
		{"description": "PIZZA PLACE", "amount": "-18.00", "date": "2024-03-01"},
	}

	first, err := processor.Process(ctx, "job-1", user.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Persisted)
	assert.False(t, first.Skipped)

	// Re-delivery of the identical payload must not duplicate rows.
	second, err := processor.Process(ctx, "job-1-redelivered", user.ID, rows)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, 0, second.Persisted)

	txns, err := store.ListTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestBatchProcessor_Process_ClassifierDown(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, store, "down@example.com")

	client := &classifier.MockClient{
		Err: &classifier.Error{Reason: classifier.ReasonTransport},
	}
	processor := NewBatchProcessor(store, NewCategorizer(client, nil), nil)

	rows := []RawRow{
		{"description": "SOMETHING NEW", "amount": "-10.00", "date": "2024-03-01"},
	}

	stats, err := processor.Process(ctx, "job-1", user.ID, rows)
	require.NoError(t, err)

	// The row still persists, just uncategorized.
	assert.Equal(t, 1, stats.Persisted)
	assert.Equal(t, 1, stats.Fallbacks)

	txns, err := store.ListTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.Uncategorized, txns[0].Category)
}

func TestBatchProcessor_Process_InvalidUserID(t *testing.T) {
	store := testutil.SetupTestDB(t)
	processor := NewBatchProcessor(store, NewCategorizer(&classifier.MockClient{}, nil), nil)

	_, err := processor.Process(context.Background(), "job-1", "not-a-uuid", []RawRow{
		{"description": "X", "amount": "1", "date": "2024-03-01"},
	})

	assert.ErrorIs(t, err, common.ErrInvalidBatch)
}

func TestBatchKey(t *testing.T) {
	rows := []RawRow{
		{"description": "A", "amount": "1", "date": "2024-03-01"},
		{"description": "B", "amount": "2", "date": "2024-03-02"},
	}

	key := BatchKey("user-1", rows)
	assert.Equal(t, key, BatchKey("user-1", rows), "same payload must map to the same key")

	reordered := []RawRow{rows[1], rows[0]}
	assert.NotEqual(t, key, BatchKey("user-1", reordered), "row order is part of the payload")
	assert.NotEqual(t, key, BatchKey("user-2", rows), "key is scoped to the user")

	changed := []RawRow{
		{"description": "A", "amount": "1", "date": "2024-03-01"},
		{"description": "B", "amount": "3", "date": "2024-03-02"},
	}
	assert.NotEqual(t, key, BatchKey("user-1", changed))
}
