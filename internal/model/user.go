package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Rules and transactions are exclusively owned
// by their user; nothing in the system crosses user boundaries.
type User struct {
	CreatedAt    time.Time
	ID           string
	Email        string
	PasswordHash string
}

// NewUserID returns a fresh user identifier.
func NewUserID() string {
	return uuid.New().String()
}
