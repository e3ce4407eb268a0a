// Package memory is an in-process implementation of the transfer store
// contract. Commits are staged and swapped in under one lock, so no partial
// write is ever observable. Fault hooks let tests simulate throttling,
// failures in the middle of a commit and concurrent writers.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/gotransfer/internal/domain"
)

// Store implements usecase.Store in memory.
type Store struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	records  map[string]domain.TransactionRecord

	commitCalls   int
	throttleNext  int
	logWriteFails int
	logWriteErr   error
	readErr       error
	midCommit     func(staged int) error
	beforeCommit  func()
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		records:  make(map[string]domain.TransactionRecord),
	}
}

// PutAccount upserts an account row.
func (s *Store) PutAccount(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := *account
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = a

	return nil
}

// GetAccount implements usecase.AccountStore.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, s.readErr)
	}

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return &a, nil
}

// TransactBalances implements usecase.AccountStore.
func (s *Store) TransactBalances(ctx context.Context, updates []domain.BalanceUpdate, record *domain.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	hook := s.beforeCommit
	s.beforeCommit = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitCalls++

	if s.throttleNext > 0 {
		s.throttleNext--
		return fmt.Errorf("memory: provisioned throughput exceeded: %w", domain.ErrThrottled)
	}

	staged := make(map[string]int64, len(updates))
	for i, u := range updates {
		current, ok := staged[u.AccountID]
		if !ok {
			a, exists := s.accounts[u.AccountID]
			if !exists {
				return fmt.Errorf("memory: account %s missing: %w", u.AccountID, domain.ErrConditionFailed)
			}
			current = a.Balance
		}

		if current != u.Expected {
			return fmt.Errorf("memory: account %s balance is %d, expected %d: %w", u.AccountID, current, u.Expected, domain.ErrConditionFailed)
		}

		staged[u.AccountID] = u.New

		if s.midCommit != nil {
			if err := s.midCommit(i + 1); err != nil {
				return err
			}
		}
	}

	if record != nil {
		if existing, ok := s.records[record.IdempotencyKey]; ok && existing.Status == domain.StatusCompleted {
			return fmt.Errorf("memory: transaction %s already completed: %w", record.IdempotencyKey, domain.ErrConditionFailed)
		}
	}

	now := time.Now().UTC()
	for id, balance := range staged {
		a := s.accounts[id]
		a.Balance = balance
		a.UpdatedAt = now
		s.accounts[id] = a
	}

	if record != nil {
		s.records[record.IdempotencyKey] = *record
	}

	return nil
}

// GetTransaction implements usecase.TransactionLog.
func (s *Store) GetTransaction(ctx context.Context, key string) (*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, s.readErr)
	}

	r, ok := s.records[key]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return &r, nil
}

// PutTransaction implements usecase.TransactionLog.
func (s *Store) PutTransaction(ctx context.Context, record *domain.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logWriteFails > 0 {
		s.logWriteFails--
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, s.logWriteErr)
	}

	if existing, ok := s.records[record.IdempotencyKey]; ok && existing.Status == domain.StatusCompleted {
		return nil
	}

	s.records[record.IdempotencyKey] = *record

	return nil
}

// Balance returns the stored balance of id.
func (s *Store) Balance(id string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	return a.Balance, ok
}

// CommitCalls returns how many times TransactBalances reached the store.
func (s *Store) CommitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitCalls
}

// ThrottleNextCommits makes the next n commits fail with ErrThrottled.
func (s *Store) ThrottleNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.throttleNext = n
}

// FailLogWrites makes the next n PutTransaction calls fail with err.
func (s *Store) FailLogWrites(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logWriteFails = n
	s.logWriteErr = err
}

// FailReads makes every read fail with err until cleared with nil.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readErr = err
}

// OnMidCommit registers fn to run after each staged update of a commit.
// Returning an error aborts the commit with nothing applied.
func (s *Store) OnMidCommit(fn func(staged int) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.midCommit = fn
}

// BeforeNextCommit registers fn to run once, outside the store lock, right
// before the next commit is evaluated. It simulates a concurrent writer
// landing between a read and a commit.
func (s *Store) BeforeNextCommit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.beforeCommit = fn
}
