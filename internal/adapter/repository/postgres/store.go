package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/infrastructure/postgres/generated"
)

type pgxPool interface {
	generated.DBTX
	pgxBeginner
	Ping(context.Context) error
}

// Store implements usecase.Store on PostgreSQL.
type Store struct {
	pool      pgxPool
	queries   *generated.Queries
	txManager *TxManager
}

// NewStore creates a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return newStoreWithPool(pool)
}

func newStoreWithPool(pool pgxPool) *Store {
	return &Store{
		pool:      pool,
		queries:   generated.New(pool),
		txManager: newTxManagerWithPool(pool),
	}
}

// PutAccount upserts an account row.
func (s *Store) PutAccount(ctx context.Context, account *domain.Account) error {
	err := s.queries.UpsertAccount(ctx, generated.UpsertAccountParams{
		ID:      account.ID,
		Balance: account.Balance,
	})
	return classify(err)
}

// GetAccount implements usecase.AccountStore.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row, err := s.queries.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, classify(err)
	}

	return &domain.Account{
		ID:        row.ID,
		Balance:   row.Balance,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

// TransactBalances implements usecase.AccountStore in one database
// transaction. Rows are updated in account ID order so concurrent commits
// over the same pair lock them in the same order.
func (s *Store) TransactBalances(ctx context.Context, updates []domain.BalanceUpdate, record *domain.TransactionRecord) error {
	sorted := slices.Clone(updates)
	slices.SortFunc(sorted, func(a, b domain.BalanceUpdate) int {
		return strings.Compare(a.AccountID, b.AccountID)
	})

	err := s.txManager.RunInTx(ctx, func(q *generated.Queries) error {
		for _, u := range sorted {
			n, err := q.CompareAndSetBalance(ctx, generated.CompareAndSetBalanceParams{
				NewBalance:      u.New,
				ID:              u.AccountID,
				ExpectedBalance: u.Expected,
			})
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("account %s no longer holds %d: %w", u.AccountID, u.Expected, domain.ErrConditionFailed)
			}
		}

		if record == nil {
			return nil
		}

		n, err := q.UpsertTransaction(ctx, recordToParams(record))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("transaction %s already completed: %w", record.IdempotencyKey, domain.ErrConditionFailed)
		}

		return nil
	})

	return classify(err)
}

// GetTransaction implements usecase.TransactionLog.
func (s *Store) GetTransaction(ctx context.Context, key string) (*domain.TransactionRecord, error) {
	row, err := s.queries.GetTransaction(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, classify(err)
	}

	return &domain.TransactionRecord{
		IdempotencyKey:  row.IdempotencyKey,
		Status:          domain.TxStatus(row.Status),
		Sender:          row.Sender,
		Receiver:        row.Receiver,
		Amount:          row.Amount,
		SenderBalance:   row.SenderBalance,
		ReceiverBalance: row.ReceiverBalance,
		Detail:          row.Detail,
		UpdatedAt:       row.UpdatedAt.Time,
	}, nil
}

// PutTransaction implements usecase.TransactionLog. The upsert skips rows
// that are already completed.
func (s *Store) PutTransaction(ctx context.Context, record *domain.TransactionRecord) error {
	_, err := s.queries.UpsertTransaction(ctx, recordToParams(record))
	return classify(err)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func recordToParams(r *domain.TransactionRecord) generated.UpsertTransactionParams {
	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return generated.UpsertTransactionParams{
		IdempotencyKey:  r.IdempotencyKey,
		Status:          string(r.Status),
		Sender:          r.Sender,
		Receiver:        r.Receiver,
		Amount:          r.Amount,
		SenderBalance:   r.SenderBalance,
		ReceiverBalance: r.ReceiverBalance,
		Detail:          r.Detail,
		UpdatedAt:       pgtype.Timestamptz{Time: updatedAt, Valid: true},
	}
}
