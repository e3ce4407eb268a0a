package domain

import "time"

// TxStatus is the lifecycle state of an idempotency key.
type TxStatus string

const (
	StatusAbsent    TxStatus = "absent"
	StatusPending   TxStatus = "pending"
	StatusCompleted TxStatus = "completed"
	StatusFailed    TxStatus = "failed"
)

// Valid reports whether s is a status that may be persisted.
func (s TxStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// TransactionRecord is the idempotency log row for one key. A completed
// record also carries the applied outcome so replays can report it.
type TransactionRecord struct {
	IdempotencyKey  string    `json:"idempotency_key"`
	Status          TxStatus  `json:"status"`
	Sender          string    `json:"sender,omitempty"`
	Receiver        string    `json:"receiver,omitempty"`
	Amount          int64     `json:"amount,omitempty"`
	SenderBalance   int64     `json:"sender_balance,omitempty"`
	ReceiverBalance int64     `json:"receiver_balance,omitempty"`
	Detail          string    `json:"detail,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Completed reports whether the transfer for this key has been applied.
func (r *TransactionRecord) Completed() bool {
	return r != nil && r.Status == StatusCompleted
}

// Result converts a completed record into a replayed TransferResult.
func (r *TransactionRecord) Result() *TransferResult {
	return &TransferResult{
		IdempotencyKey:  r.IdempotencyKey,
		Sender:          r.Sender,
		Receiver:        r.Receiver,
		Amount:          r.Amount,
		SenderBalance:   r.SenderBalance,
		ReceiverBalance: r.ReceiverBalance,
		Replayed:        true,
	}
}
