package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iho/gotransfer/internal/domain"
)

func TestFromResponse_Transfer(t *testing.T) {
	resp := domain.Response{
		StatusCode: 201,
		Body:       "Transfer k1 was already applied",
		Transfer: &domain.TransferResult{
			IdempotencyKey:  "k1",
			Sender:          "user1",
			Receiver:        "user5",
			Amount:          1,
			SenderBalance:   99,
			ReceiverBalance: 1,
			Replayed:        true,
		},
	}

	body := FromResponse(resp)

	if body.Message != resp.Body {
		t.Fatalf("message = %q", body.Message)
	}
	if body.Transfer == nil || !body.Transfer.Replayed || body.Transfer.SenderBalance != 99 {
		t.Fatalf("unexpected transfer %+v", body.Transfer)
	}
	if body.Account != nil {
		t.Fatalf("account must be omitted")
	}

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(raw), `"account"`) {
		t.Fatalf("expected account to be omitted, got %s", raw)
	}
}

func TestAccountFromDomain(t *testing.T) {
	withoutTime := AccountFromDomain(&domain.Account{ID: "user1", Balance: 100})
	if withoutTime.UpdatedAt != nil {
		t.Fatalf("zero UpdatedAt must be omitted")
	}

	now := time.Now().UTC()
	withTime := AccountFromDomain(&domain.Account{ID: "user1", Balance: 100, UpdatedAt: now})
	if withTime.UpdatedAt == nil || !withTime.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, withTime.UpdatedAt)
	}
}
