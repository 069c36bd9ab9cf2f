// Package model defines the core data structures for the smartspend backend.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one bank-statement row owned by a single user. Rows are
// append-only: every upload inserts new rows, and the only mutation after
// insert is a category correction.
type Transaction struct {
	Date                time.Time
	CreatedAt           time.Time
	ID                  string
	UserID              string
	OriginalDescription string // description exactly as uploaded
	CleanDescription    string // description after PII masking
	Category            string
	Amount              decimal.Decimal
	Reviewed            bool
}

// NewTransactionID returns a fresh transaction identifier.
func NewTransactionID() string {
	return uuid.New().String()
}
