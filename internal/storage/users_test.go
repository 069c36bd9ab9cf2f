package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/model"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	seedUser(t, store, "taken@example.com")

	err := store.CreateUser(ctx, &model.User{
		ID:           model.NewUserID(),
		Email:        "taken@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCreateUser_Validation(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	tests := []struct {
		name string
		user *model.User
	}{
		{name: "nil user", user: nil},
		{name: "missing ID", user: &model.User{Email: "a@b.c", PasswordHash: "h"}},
		{name: "missing email", user: &model.User{ID: "u1", PasswordHash: "h"}},
		{name: "missing hash", user: &model.User{ID: "u1", Email: "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.CreateUser(ctx, tt.user))
		})
	}
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	user := seedUser(t, store, "lookup@example.com")

	byEmail, err := store.GetUserByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)

	byID, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lookup@example.com", byID.Email)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetUserByID(ctx, model.NewUserID())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
