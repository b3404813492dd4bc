package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewIdempotencyKey returns a random UUIDv4 string. Debit items store one at
// creation and reuse it on every charge attempt.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
