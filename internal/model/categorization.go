package model

// Uncategorized is the label applied when neither a rule nor the remote
// classifier can produce a category.
const Uncategorized = "Uncategorized"

// CategorySource records where a transaction's category came from.
type CategorySource string

const (
	// SourceRule means a user-taught keyword rule matched.
	SourceRule CategorySource = "rule"
	// SourceClassifier means the remote zero-shot classifier answered.
	SourceClassifier CategorySource = "classifier"
	// SourceFallback means the classifier was unavailable or declined.
	SourceFallback CategorySource = "fallback"
)

// CategorizationResult is the transient outcome of categorizing one row.
// It is consumed immediately to build a Transaction and never persisted
// on its own.
type CategorizationResult struct {
	Category string
	Source   CategorySource
}
