package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrSenderNotFound   = fmt.Errorf("sender %w", ErrAccountNotFound)
	ErrReceiverNotFound = fmt.Errorf("receiver %w", ErrAccountNotFound)

	// Transfer errors
	ErrInvalidAmount         = errors.New("amount should be greater than 0")
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrBalanceOverflow       = errors.New("receiver balance would overflow")
	ErrSameAccount           = errors.New("cannot transfer to same account")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrTransactionFailed     = errors.New("transaction failed")

	// Store errors
	ErrTransactionNotFound = errors.New("transaction record not found")
	ErrConditionFailed     = errors.New("conditional check failed")
	ErrThrottled           = errors.New("store throttled the request")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// validationErrors are client errors that are never retried.
var validationErrors = []error{
	ErrAccountNotFound,
	ErrInvalidAmount,
	ErrAmountTooLarge,
	ErrInsufficientFunds,
	ErrBalanceOverflow,
	ErrSameAccount,
	ErrMissingIdempotencyKey,
	ErrInvalidIdempotencyKey,
	ErrInvalidAccountID,
}

// IsValidation reports whether err is a client-side validation error.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// TransactionFailedError is returned when the atomic commit could not be
// applied. It matches ErrTransactionFailed and unwraps to the commit error.
type TransactionFailedError struct {
	IdempotencyKey string
	Attempts       int
	Err            error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed after %d attempt(s): %v", e.IdempotencyKey, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the underlying store error.
func (e *TransactionFailedError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Err}
}
