package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartspend/smartspend/internal/service"
)

// GetDashboard aggregates a user's spending: grand total, per-category
// totals (largest first) and per-month totals (chronological). A nil
// start/end leaves that side of the period open.
func (s *SQLiteStorage) GetDashboard(ctx context.Context, userID string, start, end *time.Time) (*service.DashboardSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, date, original_description, clean_description, amount, category, reviewed, created_at
		FROM transactions
		WHERE user_id = ?`
	args := []any{userID}

	if start != nil {
		query += ` AND date >= ?`
		args = append(args, *start)
	}
	if end != nil {
		query += ` AND date < ?`
		args = append(args, *end)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	// Sums run over exact decimals in Go rather than SQLite float math.
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	byMonth := make(map[string]decimal.Decimal)

	for _, txn := range txns {
		total = total.Add(txn.Amount)
		if txn.Category != "" {
			byCategory[txn.Category] = byCategory[txn.Category].Add(txn.Amount)
		}
		month := txn.Date.Format("2006-01")
		byMonth[month] = byMonth[month].Add(txn.Amount)
	}

	summary := &service.DashboardSummary{TotalSpent: total}

	for category, amount := range byCategory {
		summary.TopCategories = append(summary.TopCategories, service.CategoryTotal{
			Category: category,
			Total:    amount,
		})
	}
	sort.Slice(summary.TopCategories, func(i, j int) bool {
		a, b := summary.TopCategories[i], summary.TopCategories[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Category < b.Category
	})

	for month, amount := range byMonth {
		summary.MonthlySpend = append(summary.MonthlySpend, service.MonthTotal{
			Month: month,
			Total: amount,
		})
	}
	sort.Slice(summary.MonthlySpend, func(i, j int) bool {
		return summary.MonthlySpend[i].Month < summary.MonthlySpend[j].Month
	})

	return summary, nil
}
