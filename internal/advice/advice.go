// Package advice generates monthly spending advice: an LLM-backed coach
// with a deterministic rule-based fallback.
package advice

import (
	"context"
	"fmt"
	"strings"
)

// Source identifies which generator produced the advice.
type Source string

const (
	// SourceAI means the advice came from the hosted language model.
	SourceAI Source = "ai"
	// SourceRuleBased means the deterministic fallback produced it.
	SourceRuleBased Source = "rule_based"
)

// Generator produces advice text for one month of spending. It is total:
// implementations fall back internally rather than returning an error.
type Generator interface {
	Generate(ctx context.Context, month string, spent, budget float64) (string, Source)
}

// RuleBased generates deterministic advice from spending thresholds.
// It never fails and serves as the fallback for the LLM generator.
type RuleBased struct{}

// Generate returns three actionable bullet points based on how much of the
// budget the month consumed.
func (RuleBased) Generate(_ context.Context, month string, spent, budget float64) (string, Source) {
	var percentUsed, remaining float64
	if budget > 0 {
		percentUsed = spent / budget * 100
		remaining = budget - spent
	}

	var points []string
	switch {
	case spent > budget:
		over := fmt.Sprintf("$%.2f", spent-budget)
		points = []string{
			"* You've exceeded your budget by " + over + ". Review discretionary spending this month.",
			"* Consider cutting back on non-essential expenses to get back on track.",
			"* Set up spending alerts to monitor your progress more closely.",
		}
	case percentUsed >= 90:
		points = []string{
			fmt.Sprintf("* You've used %.1f%% of your budget. Be mindful of remaining expenses.", percentUsed),
			fmt.Sprintf("* You have $%.2f remaining. Prioritize essential purchases only.", remaining),
			"* Track daily spending to ensure you stay within budget.",
		}
	case percentUsed >= 70:
		points = []string{
			fmt.Sprintf("* You've used %.1f%% of your budget. You're on track!", percentUsed),
			fmt.Sprintf("* You have $%.2f remaining for the rest of %s.", remaining, month),
			"* Continue monitoring your spending to maintain this healthy pace.",
		}
	case percentUsed >= 50:
		points = []string{
			fmt.Sprintf("* Great job! You've used %.1f%% of your budget with $%.2f remaining.", percentUsed, remaining),
			"* You're spending at a sustainable rate. Keep up the good habits!",
			"* Consider saving leftover budget for future months or unexpected needs.",
		}
	default:
		points = []string{
			fmt.Sprintf("* Excellent! You've only used %.1f%% of your budget.", percentUsed),
			fmt.Sprintf("* You have $%.2f remaining. This is a great opportunity to build savings.", remaining),
			"* Consider allocating some of the remaining budget to an emergency fund.",
		}
	}

	return strings.Join(points, "\n"), SourceRuleBased
}
