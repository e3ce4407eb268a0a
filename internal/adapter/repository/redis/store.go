package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gotransfer/internal/domain"
)

const (
	accountPrefix     = "account:"
	transactionPrefix = "txn:"
)

// throttlePrefixes are server replies that signal load rather than failure.
var throttlePrefixes = []string{"BUSY", "TRYAGAIN", "LOADING", "CLUSTERDOWN", "MASTERDOWN"}

// getter is the read surface shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store implements usecase.Store on Redis. Balances live under
// account:<id> as integer strings and idempotency records under txn:<key>
// as JSON with a TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Store. ttl bounds how long idempotency records
// are kept; zero keeps them forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// PutAccount sets the balance of an account unconditionally.
func (s *Store) PutAccount(ctx context.Context, account *domain.Account) error {
	if err := s.client.Set(ctx, accountPrefix+account.ID, account.Balance, 0).Err(); err != nil {
		return classify(err)
	}
	return nil
}

// GetAccount implements usecase.AccountStore.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	balance, err := getBalance(ctx, s.client, id)
	if err != nil {
		return nil, err
	}

	return &domain.Account{ID: id, Balance: balance}, nil
}

// TransactBalances implements usecase.AccountStore with WATCH and
// MULTI/EXEC. The preconditions are checked against the watched keys, so
// any write to them between the check and EXEC aborts the transaction.
func (s *Store) TransactBalances(ctx context.Context, updates []domain.BalanceUpdate, record *domain.TransactionRecord) error {
	keys := make([]string, 0, len(updates)+1)
	for _, u := range updates {
		keys = append(keys, accountPrefix+u.AccountID)
	}

	var payload []byte
	if record != nil {
		var err error
		if payload, err = json.Marshal(record); err != nil {
			return fmt.Errorf("encode transaction %s: %w", record.IdempotencyKey, err)
		}
		keys = append(keys, transactionPrefix+record.IdempotencyKey)
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		for _, u := range updates {
			current, err := getBalance(ctx, tx, u.AccountID)
			if errors.Is(err, domain.ErrAccountNotFound) {
				return fmt.Errorf("account %s missing: %w", u.AccountID, domain.ErrConditionFailed)
			}
			if err != nil {
				return err
			}
			if current != u.Expected {
				return fmt.Errorf("account %s balance is %d, expected %d: %w", u.AccountID, current, u.Expected, domain.ErrConditionFailed)
			}
		}

		if record != nil {
			existing, err := getTransaction(ctx, tx, record.IdempotencyKey)
			if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
				return err
			}
			if existing.Completed() {
				return fmt.Errorf("transaction %s already completed: %w", record.IdempotencyKey, domain.ErrConditionFailed)
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, u := range updates {
				pipe.Set(ctx, accountPrefix+u.AccountID, u.New, 0)
			}
			if record != nil {
				pipe.Set(ctx, transactionPrefix+record.IdempotencyKey, payload, s.ttl)
			}
			return nil
		})
		return err
	}, keys...)

	if err == nil || errors.Is(err, domain.ErrConditionFailed) || isDomainStoreError(err) {
		return err
	}

	return classify(err)
}

// GetTransaction implements usecase.TransactionLog.
func (s *Store) GetTransaction(ctx context.Context, key string) (*domain.TransactionRecord, error) {
	return getTransaction(ctx, s.client, key)
}

// PutTransaction implements usecase.TransactionLog. A completed record is
// never overwritten.
func (s *Store) PutTransaction(ctx context.Context, record *domain.TransactionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", record.IdempotencyKey, err)
	}

	key := transactionPrefix + record.IdempotencyKey

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		existing, err := getTransaction(ctx, tx, record.IdempotencyKey)
		if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
			return err
		}
		if existing.Completed() {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)

	if err == nil || isDomainStoreError(err) {
		return err
	}

	return classify(err)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func getBalance(ctx context.Context, c getter, id string) (int64, error) {
	raw, err := c.Get(ctx, accountPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrAccountNotFound
	}
	if err != nil {
		return 0, classify(err)
	}

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: account %s holds non-integer balance %q", domain.ErrStoreUnavailable, id, raw)
	}

	return balance, nil
}

func getTransaction(ctx context.Context, c getter, key string) (*domain.TransactionRecord, error) {
	raw, err := c.Get(ctx, transactionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, classify(err)
	}

	var record domain.TransactionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: decode transaction %s: %v", domain.ErrStoreUnavailable, key, err)
	}

	return &record, nil
}

// classify maps a go-redis error onto the store error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("watched key changed: %w", domain.ErrConditionFailed)
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		for _, prefix := range throttlePrefixes {
			if strings.HasPrefix(msg, prefix) {
				return fmt.Errorf("%w: %v", domain.ErrThrottled, err)
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrThrottled, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func isDomainStoreError(err error) bool {
	return errors.Is(err, domain.ErrConditionFailed) ||
		errors.Is(err, domain.ErrThrottled) ||
		errors.Is(err, domain.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
