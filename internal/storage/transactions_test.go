package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/service"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSaveAndGetTransaction(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	user := seedUser(t, store, "txn@example.com")

	saved := seedTransaction(t, store, user.ID, "WHOLE FOODS", "Groceries", "-42.17", day(1))

	got, err := store.GetTransaction(ctx, user.ID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "WHOLE FOODS", got.OriginalDescription)
	assert.Equal(t, "Groceries", got.Category)
	assert.True(t, got.Amount.Equal(saved.Amount), "amount survives the TEXT round-trip exactly")
	assert.False(t, got.Reviewed)
}

func TestGetTransaction_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	alice := seedUser(t, store, "alice-txn@example.com")
	bob := seedUser(t, store, "bob-txn@example.com")

	txn := seedTransaction(t, store, alice.ID, "COFFEE", "Dining", "-4.50", day(1))

	_, err := store.GetTransaction(ctx, bob.ID, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	user := seedUser(t, store, "list@example.com")

	seedTransaction(t, store, user.ID, "FIRST", "A", "-1", day(1))
	seedTransaction(t, store, user.ID, "SECOND", "B", "-2", day(2))
	seedTransaction(t, store, user.ID, "THIRD", "C", "-3", day(3))

	t.Run("newest first", func(t *testing.T) {
		txns, err := store.ListTransactions(ctx, user.ID, service.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, txns, 3)
		assert.Equal(t, "THIRD", txns[0].OriginalDescription)
		assert.Equal(t, "FIRST", txns[2].OriginalDescription)
	})

	t.Run("paging", func(t *testing.T) {
		txns, err := store.ListTransactions(ctx, user.ID, service.TransactionFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "SECOND", txns[0].OriginalDescription)
	})

	t.Run("other users excluded", func(t *testing.T) {
		other := seedUser(t, store, "list-other@example.com")
		txns, err := store.ListTransactions(ctx, other.ID, service.TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestGetTransactionsByPeriod(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	user := seedUser(t, store, "period@example.com")

	seedTransaction(t, store, user.ID, "BEFORE", "A", "-1", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	seedTransaction(t, store, user.ID, "INSIDE", "B", "-2", day(15))
	seedTransaction(t, store, user.ID, "EDGE", "C", "-3", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	start := day(1)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	txns, err := store.GetTransactionsByPeriod(ctx, user.ID, start, end)
	require.NoError(t, err)
	require.Len(t, txns, 1, "period is inclusive of start, exclusive of end")
	assert.Equal(t, "INSIDE", txns[0].OriginalDescription)

	_, err = store.GetTransactionsByPeriod(ctx, user.ID, end, start)
	assert.Error(t, err)
}

func TestUpdateTransactionCategory_ViaTx(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	user := seedUser(t, store, "update@example.com")

	txn := seedTransaction(t, store, user.ID, "UBER", "Shopping", "-15.50", day(1))

	t.Run("commit applies both writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.UpsertRule(ctx, user.ID, "uber", "Transport"))
		require.NoError(t, tx.UpdateTransactionCategory(ctx, user.ID, txn.ID, "Transport", true))
		require.NoError(t, tx.Commit())

		got, err := store.GetTransaction(ctx, user.ID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "Transport", got.Category)
		assert.True(t, got.Reviewed)

		rules, err := store.GetRules(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Transport", rules["uber"])
	})

	t.Run("rollback discards both writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.UpsertRule(ctx, user.ID, "lyft", "Transport"))
		require.NoError(t, tx.UpdateTransactionCategory(ctx, user.ID, txn.ID, "Entertainment", false))
		require.NoError(t, tx.Rollback())

		got, err := store.GetTransaction(ctx, user.ID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "Transport", got.Category, "rolled-back update must not apply")

		rules, err := store.GetRules(ctx, user.ID)
		require.NoError(t, err)
		assert.NotContains(t, rules, "lyft")
	})

	t.Run("missing row", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		err = tx.UpdateTransactionCategory(ctx, user.ID, model.NewTransactionID(), "Dining", true)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
