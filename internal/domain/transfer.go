package domain

import "fmt"

// TransferRequest moves Amount from Sender to Receiver.
type TransferRequest struct {
	Sender         string
	Receiver       string
	Amount         int64
	IdempotencyKey string
}

// Kind implements Request.
func (TransferRequest) Kind() RequestKind {
	return KindTransfer
}

// Validate checks the request-level business rules. Balance rules are
// checked separately against the accounts read from the store.
func (r TransferRequest) Validate() error {
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}

	if r.Sender == r.Receiver {
		return ErrSameAccount
	}

	return nil
}

// TransferResult is the outcome of an applied (or replayed) transfer.
type TransferResult struct {
	IdempotencyKey  string
	Sender          string
	Receiver        string
	Amount          int64
	SenderBalance   int64
	ReceiverBalance int64
	Replayed        bool
}

// Message renders the result as a human-readable sentence.
func (r *TransferResult) Message() string {
	if r.Replayed {
		return fmt.Sprintf("Transfer %s was already applied", r.IdempotencyKey)
	}

	return fmt.Sprintf("Transfered %d from %s to %s. New balance of %s is %d and of %s is %d",
		r.Amount, r.Sender, r.Receiver, r.Sender, r.SenderBalance, r.Receiver, r.ReceiverBalance)
}

// BalanceUpdate is one row of an atomic commit: set the account balance to
// New only if it still equals Expected.
type BalanceUpdate struct {
	AccountID string
	Expected  int64
	New       int64
}
