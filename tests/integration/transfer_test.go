package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/tests/testutil"
)

func TestTransfer_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	executor := testDB.NewExecutor()

	t.Run("applies and persists completed record", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		testDB.SeedAccounts(ctx, map[string]int64{"user1": 100, "user5": 0})

		key := testutil.GenerateID()
		res, err := executor.Execute(ctx, domain.TransferRequest{Sender: "user1", Receiver: "user5", Amount: 1, IdempotencyKey: key})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.SenderBalance != 99 || res.ReceiverBalance != 1 || res.Replayed {
			t.Fatalf("unexpected result %+v", res)
		}

		if got := testDB.Balance(ctx, "user1"); got != 99 {
			t.Errorf("sender balance = %d, want 99", got)
		}
		if got := testDB.Balance(ctx, "user5"); got != 1 {
			t.Errorf("receiver balance = %d, want 1", got)
		}

		record, err := testDB.Store.GetTransaction(ctx, key)
		if err != nil {
			t.Fatalf("failed to read record: %v", err)
		}
		if !record.Completed() || record.SenderBalance != 99 || record.ReceiverBalance != 1 {
			t.Errorf("unexpected record %+v", record)
		}
	})

	t.Run("replay leaves balances untouched", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		testDB.SeedAccounts(ctx, map[string]int64{"user1": 100, "user5": 0})

		req := domain.TransferRequest{Sender: "user1", Receiver: "user5", Amount: 10, IdempotencyKey: testutil.GenerateID()}
		if _, err := executor.Execute(ctx, req); err != nil {
			t.Fatalf("first execute: %v", err)
		}

		res, err := executor.Execute(ctx, req)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if !res.Replayed || res.SenderBalance != 90 {
			t.Fatalf("expected replay of the recorded result, got %+v", res)
		}
		if got := testDB.Balance(ctx, "user1"); got != 90 {
			t.Errorf("sender balance = %d, want 90", got)
		}
	})

	t.Run("rejections leave balances untouched", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		testDB.SeedAccounts(ctx, map[string]int64{"user1": 100, "user5": 0})

		tests := []struct {
			name    string
			req     domain.TransferRequest
			wantErr error
		}{
			{"zero amount", domain.TransferRequest{Sender: "user1", Receiver: "user5", Amount: 0}, domain.ErrInvalidAmount},
			{"negative amount", domain.TransferRequest{Sender: "user1", Receiver: "user5", Amount: -5}, domain.ErrInvalidAmount},
			{"insufficient funds", domain.TransferRequest{Sender: "user1", Receiver: "user5", Amount: 150}, domain.ErrInsufficientFunds},
			{"unknown sender", domain.TransferRequest{Sender: "ghost", Receiver: "user5", Amount: 1}, domain.ErrSenderNotFound},
			{"unknown receiver", domain.TransferRequest{Sender: "user1", Receiver: "ghost", Amount: 1}, domain.ErrReceiverNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.req.IdempotencyKey = testutil.GenerateID()

				_, err := executor.Execute(ctx, tt.req)
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}

		if got := testDB.Balance(ctx, "user1"); got != 100 {
			t.Errorf("sender balance = %d, want 100", got)
		}
		if got := testDB.Balance(ctx, "user5"); got != 0 {
			t.Errorf("receiver balance = %d, want 0", got)
		}
	})
}
