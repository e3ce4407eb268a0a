package usecase

import (
	"context"
	"time"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountStore defines data access for account balances.
type AccountStore interface {
	// GetAccount returns domain.ErrAccountNotFound when the row is absent.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// TransactBalances applies every update and writes record as one atomic
	// unit. Each update only applies if the stored balance still equals
	// Expected, and record is only written if the stored record for its key
	// is not already completed. Either precondition failing yields
	// domain.ErrConditionFailed; a throughput or contention signal yields
	// domain.ErrThrottled. A nil record skips the log write.
	TransactBalances(ctx context.Context, updates []domain.BalanceUpdate, record *domain.TransactionRecord) error
}

// TransactionLog defines data access for idempotency records.
type TransactionLog interface {
	// GetTransaction returns domain.ErrTransactionNotFound when the key is unknown.
	GetTransaction(ctx context.Context, key string) (*domain.TransactionRecord, error)
	// PutTransaction upserts record. A completed record is never overwritten.
	PutTransaction(ctx context.Context, record *domain.TransactionRecord) error
}

// Store is the full key-value contract consumed by the transfer protocol.
type Store interface {
	AccountStore
	TransactionLog
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Metrics receives transfer protocol measurements.
type Metrics interface {
	ObserveTransfer(outcome string, elapsed time.Duration)
	IncCommitRetry(reason string)
	IncStatusWriteDropped()
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) ObserveTransfer(string, time.Duration) {}
func (NopMetrics) IncCommitRetry(string)                 {}
func (NopMetrics) IncStatusWriteDropped()                {}
