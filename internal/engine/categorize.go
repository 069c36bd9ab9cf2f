// Package engine implements the categorization feedback loop: deterministic
// user-taught rules first, the remote zero-shot classifier second, and the
// Uncategorized fallback last.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/smartspend/smartspend/internal/classifier"
	"github.com/smartspend/smartspend/internal/model"
)

// Categorizer assigns a category to one parsed row.
type Categorizer struct {
	client classifier.Client
	logger *slog.Logger
}

// NewCategorizer creates a categorizer backed by the given classifier client.
func NewCategorizer(client classifier.Client, logger *slog.Logger) *Categorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		client: client,
		logger: logger,
	}
}

// Categorize resolves the category for a sanitized description. Rules win
// over the classifier; any classifier failure, and a classifier answer of
// Uncategorized, resolve to the fallback source. When several rule keywords
// match, the longest keyword wins, ties broken lexicographically, so the
// outcome never depends on map iteration order.
func (c *Categorizer) Categorize(ctx context.Context, rules map[string]string, cleanDescription string) model.CategorizationResult {
	if category, ok := matchRule(rules, cleanDescription); ok {
		return model.CategorizationResult{
			Category: category,
			Source:   model.SourceRule,
		}
	}

	label, err := c.client.Classify(ctx, cleanDescription)
	if err != nil {
		var cerr *classifier.Error
		if errors.As(err, &cerr) {
			c.logger.Debug("Classifier unavailable, falling back",
				"reason", string(cerr.Reason))
		} else {
			c.logger.Warn("Classifier failed, falling back", "error", err)
		}
		return model.CategorizationResult{
			Category: model.Uncategorized,
			Source:   model.SourceFallback,
		}
	}

	if label == model.Uncategorized {
		return model.CategorizationResult{
			Category: model.Uncategorized,
			Source:   model.SourceFallback,
		}
	}

	return model.CategorizationResult{
		Category: label,
		Source:   model.SourceClassifier,
	}
}

// matchRule scans rule keywords for substring matches against the lowered
// description and picks the deterministic winner.
func matchRule(rules map[string]string, cleanDescription string) (string, bool) {
	desc := strings.ToLower(cleanDescription)

	var best string
	for keyword := range rules {
		if keyword == "" || !strings.Contains(desc, keyword) {
			continue
		}
		if len(keyword) > len(best) || (len(keyword) == len(best) && keyword < best) {
			best = keyword
		}
	}

	if best == "" {
		return "", false
	}
	return rules[best], true
}
