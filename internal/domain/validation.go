package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrAmountTooLarge        = errors.New("amount exceeds maximum allowed")
	ErrInvalidAccountID      = errors.New("invalid account ID")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
)

// Validation constants
const (
	MaxAccountIDLength      = 255
	MaxIdempotencyKeyLength = 255
	MaxTransferAmount       = int64(1_000_000_000_000) // 1 trillion
)

var idRegex = regexp.MustCompile(`^[A-Za-z0-9._:@-]+$`)

// ValidateAccountID validates an account identifier.
func ValidateAccountID(id string) error {
	id = strings.TrimSpace(id)

	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidAccountID)
	}

	if len(id) > MaxAccountIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidAccountID, MaxAccountIDLength)
	}

	if !idRegex.MatchString(id) {
		return fmt.Errorf("%w: %q contains forbidden characters", ErrInvalidAccountID, id)
	}

	return nil
}

// ValidateIdempotencyKey validates a client supplied idempotency key.
func ValidateIdempotencyKey(key string) error {
	if key == "" {
		return ErrMissingIdempotencyKey
	}

	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}

	if !idRegex.MatchString(key) {
		return fmt.Errorf("%w: key contains forbidden characters", ErrInvalidIdempotencyKey)
	}

	return nil
}

// ValidateAmount validates a transfer amount
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if amount > MaxTransferAmount {
		return fmt.Errorf("%w: maximum amount is %d", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}
