// Package classifier provides the client for the remote zero-shot
// transaction classifier.
package classifier

import (
	"context"
	"fmt"
	"slices"
)

// FailureReason classifies why the remote classifier could not produce a
// label. Callers branch on it explicitly instead of catching everything.
type FailureReason string

const (
	// ReasonNoCredential means no API token is configured; no call was made.
	ReasonNoCredential FailureReason = "no_credential"
	// ReasonTransport covers connection failures and timeouts.
	ReasonTransport FailureReason = "transport"
	// ReasonStatus means the endpoint answered with a non-2xx status.
	ReasonStatus FailureReason = "status"
	// ReasonMalformed means the response body was missing expected fields.
	ReasonMalformed FailureReason = "malformed"
)

// Error carries a classified failure reason alongside the underlying cause.
type Error struct {
	Err    error
	Reason FailureReason
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classify (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classify (%s)", e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client produces a category label for sanitized free text. Implementations
// return an *Error so callers can branch on the failure reason; the engine
// converts every failure into the Uncategorized fallback.
type Client interface {
	Classify(ctx context.Context, text string) (string, error)
}

// candidateLabels is the fixed label set the zero-shot classifier ranks.
var candidateLabels = []string{
	"Groceries",
	"Rent",
	"Transport",
	"Utilities",
	"Dining",
	"Shopping",
	"Medical",
	"Entertainment",
	"Uncategorized",
}

// Labels returns the candidate label set sent with every request.
func Labels() []string {
	return slices.Clone(candidateLabels)
}
