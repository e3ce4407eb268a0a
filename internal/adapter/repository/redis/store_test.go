package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

func seed(t *testing.T, store *Store, balances map[string]int64) {
	t.Helper()

	for id, b := range balances {
		require.NoError(t, store.PutAccount(context.Background(), &domain.Account{ID: id, Balance: b}))
	}
}

func TestStore_GetAccount(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewStore(client, time.Hour)
	ctx := context.Background()

	seed(t, store, map[string]int64{"user1": 100})

	account, err := store.GetAccount(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)

	_, err = store.GetAccount(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.NoError(t, mr.Set(accountPrefix+"broken", "abc"))
	_, err = store.GetAccount(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStore_TransactBalancesApplies(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewStore(client, time.Hour)
	ctx := context.Background()
	seed(t, store, map[string]int64{"a": 100, "b": 0})

	record := &domain.TransactionRecord{
		IdempotencyKey:  "k1",
		Status:          domain.StatusCompleted,
		Sender:          "a",
		Receiver:        "b",
		Amount:          30,
		SenderBalance:   70,
		ReceiverBalance: 30,
	}

	err := store.TransactBalances(ctx, []domain.BalanceUpdate{
		{AccountID: "a", Expected: 100, New: 70},
		{AccountID: "b", Expected: 0, New: 30},
	}, record)
	require.NoError(t, err)

	a, _ := store.GetAccount(ctx, "a")
	b, _ := store.GetAccount(ctx, "b")
	assert.Equal(t, int64(70), a.Balance)
	assert.Equal(t, int64(30), b.Balance)

	got, err := store.GetTransaction(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, int64(70), got.SenderBalance)

	ttl := mr.TTL(transactionPrefix + "k1")
	assert.True(t, ttl > 0 && ttl <= time.Hour, "unexpected ttl %v", ttl)
}

func TestStore_TransactBalancesConditionFailed(t *testing.T) {
	tests := []struct {
		name    string
		updates []domain.BalanceUpdate
		prior   *domain.TransactionRecord
	}{
		{
			name: "stale sender balance",
			updates: []domain.BalanceUpdate{
				{AccountID: "a", Expected: 90, New: 60},
				{AccountID: "b", Expected: 0, New: 30},
			},
		},
		{
			name: "stale receiver balance",
			updates: []domain.BalanceUpdate{
				{AccountID: "a", Expected: 100, New: 70},
				{AccountID: "b", Expected: 5, New: 35},
			},
		},
		{
			name: "missing account",
			updates: []domain.BalanceUpdate{
				{AccountID: "a", Expected: 100, New: 70},
				{AccountID: "ghost", Expected: 0, New: 30},
			},
		},
		{
			name: "key already completed",
			updates: []domain.BalanceUpdate{
				{AccountID: "a", Expected: 100, New: 70},
				{AccountID: "b", Expected: 0, New: 30},
			},
			prior: &domain.TransactionRecord{IdempotencyKey: "k1", Status: domain.StatusCompleted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestRedisClient(t)
			defer client.Close()

			store := NewStore(client, time.Hour)
			ctx := context.Background()
			seed(t, store, map[string]int64{"a": 100, "b": 0})

			if tt.prior != nil {
				require.NoError(t, store.PutTransaction(ctx, tt.prior))
			}

			err := store.TransactBalances(ctx, tt.updates, &domain.TransactionRecord{IdempotencyKey: "k1", Status: domain.StatusCompleted})
			require.ErrorIs(t, err, domain.ErrConditionFailed)

			a, _ := store.GetAccount(ctx, "a")
			b, _ := store.GetAccount(ctx, "b")
			assert.Equal(t, int64(100), a.Balance)
			assert.Equal(t, int64(0), b.Balance)

			if tt.prior == nil {
				_, err = store.GetTransaction(ctx, "k1")
				assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
			}
		})
	}
}

func TestStore_PutTransactionNeverDowngradesCompleted(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.PutTransaction(ctx, &domain.TransactionRecord{IdempotencyKey: "k1", Status: domain.StatusFailed}))
	require.NoError(t, store.PutTransaction(ctx, &domain.TransactionRecord{IdempotencyKey: "k1", Status: domain.StatusCompleted}))
	require.NoError(t, store.PutTransaction(ctx, &domain.TransactionRecord{IdempotencyKey: "k1", Status: domain.StatusFailed}))

	got, err := store.GetTransaction(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	_, err = store.GetTransaction(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestStore_ThrottleReplies(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewStore(client, time.Hour)
	ctx := context.Background()
	seed(t, store, map[string]int64{"a": 100})

	mr.SetError("BUSY Redis is busy running a script")
	_, err := store.GetAccount(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrThrottled)

	mr.SetError("ERR something odd")
	_, err = store.GetAccount(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	mr.SetError("")
	_, err = store.GetAccount(ctx, "a")
	assert.NoError(t, err)
}

func TestStore_ServerGone(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewStore(client, time.Hour)
	mr.Close()

	_, err := store.GetTransaction(context.Background(), "k1")
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrThrottled), "got %v", err)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(redislib.TxFailedErr), domain.ErrConditionFailed)
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.ErrorIs(t, classify(errors.New("EOF")), domain.ErrStoreUnavailable)
	assert.NoError(t, classify(nil))
}

func TestStore_TransferProtocol(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewStore(client, time.Hour)
	seed(t, store, map[string]int64{"user1": 100, "user5": 0})

	policy := usecase.RetryPolicy{
		CommitMaxAttempts:      3,
		CommitRetryDelay:       time.Millisecond,
		ConflictMaxAttempts:    5,
		ConflictInitialWait:    time.Millisecond,
		ConflictMaxWait:        2 * time.Millisecond,
		StatusWriteMaxAttempts: 3,
		StatusWriteRetryDelay:  time.Millisecond,
	}
	guard := usecase.NewIdempotencyGuard(store, policy, zerolog.Nop(), nil)
	executor := usecase.NewTransferExecutor(store, guard, policy, zerolog.Nop(), nil)

	req := domain.TransferRequest{Sender: "user1", Receiver: "user5", Amount: 1, IdempotencyKey: "redis-1"}

	result, err := executor.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(99), result.SenderBalance)
	assert.Equal(t, int64(1), result.ReceiverBalance)

	replay, err := executor.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)

	a, _ := store.GetAccount(context.Background(), "user1")
	assert.Equal(t, int64(99), a.Balance)
}
