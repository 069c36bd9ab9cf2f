package model

import (
	"strings"
	"time"
)

// CategoryRule maps a normalized keyword to a category for one user.
// At most one rule exists per (user, keyword) pair; corrections overwrite
// the category rather than creating a duplicate.
type CategoryRule struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    string
	Keyword   string // stored normalized; see NormalizeKeyword
	Category  string
	ID        int64
}

// NormalizeKeyword produces the canonical form of a rule keyword: trimmed
// and lowercased. The same normalization is applied on storage and on
// substring matching so the two can never disagree.
func NormalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
