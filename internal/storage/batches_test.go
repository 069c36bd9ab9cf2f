package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspend/smartspend/internal/service"
)

func TestBatchCompletion(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	user := seedUser(t, store, "batches@example.com")

	const key = "0f5c4ab1aa"

	done, err := store.IsBatchCompleted(ctx, key)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.MarkBatchCompleted(ctx, &service.BatchRecord{
		Key:       key,
		UserID:    user.ID,
		JobID:     "job-1",
		Processed: 12,
		Failed:    1,
	}))

	done, err = store.IsBatchCompleted(ctx, key)
	require.NoError(t, err)
	assert.True(t, done)

	// Recording the same key again is a no-op, not an error.
	require.NoError(t, store.MarkBatchCompleted(ctx, &service.BatchRecord{
		Key:    key,
		UserID: user.ID,
		JobID:  "job-1-redelivered",
	}))

	done, err = store.IsBatchCompleted(ctx, key)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestMarkBatchCompleted_Validation(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	assert.Error(t, store.MarkBatchCompleted(ctx, nil))
	assert.Error(t, store.MarkBatchCompleted(ctx, &service.BatchRecord{}))
}
