// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/smartspend/smartspend/internal/model"
	"github.com/smartspend/smartspend/internal/storage"
)

// SetupTestDB creates a migrated in-memory database and registers cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedUser creates a user for tests that need an owner for rules and
// transactions.
func SeedUser(t *testing.T, store *storage.SQLiteStorage, email string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           model.NewUserID(),
		Email:        email,
		PasswordHash: "not-a-real-hash",
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %q: %v", email, err)
	}
	return user
}
