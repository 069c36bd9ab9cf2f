package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/smartspend/smartspend/internal/model"
)

// GetRules returns every rule for a user as a normalized-keyword → category
// map. The engine loads this once per batch, not once per row.
func (s *SQLiteStorage) GetRules(ctx context.Context, userID string) (map[string]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword, category
		FROM rules
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := make(map[string]string)
	for rows.Next() {
		var keyword, category string
		if err := rows.Scan(&keyword, &category); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules[model.NormalizeKeyword(keyword)] = category
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// ListRules returns every rule for a user, newest update first.
func (s *SQLiteStorage) ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, keyword, category, created_at, updated_at
		FROM rules
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		var rule model.CategoryRule
		if err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.Keyword,
			&rule.Category,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// UpsertRule creates or overwrites the rule for (user, keyword). The keyword
// is normalized before storage; the UNIQUE(user_id, keyword) constraint plus
// ON CONFLICT makes concurrent corrections last-writer-wins.
func (s *SQLiteStorage) UpsertRule(ctx context.Context, userID, keyword, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRuleInput(userID, keyword, category); err != nil {
		return err
	}
	return s.upsertRuleTx(ctx, s.db, userID, keyword, category)
}

func (s *SQLiteStorage) upsertRuleTx(ctx context.Context, q queryable, userID, keyword, category string) error {
	now := time.Now().UTC()

	_, err := q.ExecContext(ctx, `
		INSERT INTO rules (user_id, keyword, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, keyword) DO UPDATE SET
			category = excluded.category,
			updated_at = excluded.updated_at
	`, userID, model.NormalizeKeyword(keyword), category, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert rule: %w", err)
	}

	return nil
}
