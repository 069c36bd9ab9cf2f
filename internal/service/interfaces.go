// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartspend/smartspend/internal/model"
)

// TransactionFilter defines paging options for transaction queries.
type TransactionFilter struct {
	Limit  int
	Offset int
}

// CategoryTotal is the amount spent in one category over a period.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// MonthTotal is the amount spent in one calendar month (YYYY-MM).
type MonthTotal struct {
	Month string
	Total decimal.Decimal
}

// DashboardSummary aggregates a user's spending, optionally within a period.
type DashboardSummary struct {
	TotalSpent    decimal.Decimal
	TopCategories []CategoryTotal
	MonthlySpend  []MonthTotal
}

// BatchRecord tracks a processed upload batch for idempotent re-delivery.
type BatchRecord struct {
	CompletedAt time.Time
	Key         string
	UserID      string
	JobID       string
	Processed   int
	Failed      int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// Rule operations
	GetRules(ctx context.Context, userID string) (map[string]string, error)
	UpsertRule(ctx context.Context, userID, keyword, category string) error
	ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error)

	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsByPeriod(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error)
	GetDashboard(ctx context.Context, userID string, start, end *time.Time) (*DashboardSummary, error)

	// Batch bookkeeping for idempotent job re-delivery
	IsBatchCompleted(ctx context.Context, key string) (bool, error)
	MarkBatchCompleted(ctx context.Context, record *BatchRecord) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction. The correction feedback
// flow uses it to commit a rule upsert and a transaction update together.
type Transaction interface {
	Commit() error
	Rollback() error

	GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error)
	UpsertRule(ctx context.Context, userID, keyword, category string) error
	UpdateTransactionCategory(ctx context.Context, userID, id, category string, reviewed bool) error
}

// RetryOptions configures retry behavior.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
