package domain

import (
	"math"
	"time"
)

// Account is a single balance row in the store.
type Account struct {
	ID        string
	Balance   int64
	UpdatedAt time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount int64) error {
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks that crediting amount keeps the balance
// representable.
func (a *Account) ValidateCredit(amount int64) error {
	if amount > 0 && a.Balance > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount int64) int64 {
	return a.Balance - amount
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount int64) int64 {
	return a.Balance + amount
}
