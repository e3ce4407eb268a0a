package dto

import (
	"time"

	"github.com/iho/gotransfer/internal/domain"
)

// TransferResponse represents a transfer outcome in API responses.
type TransferResponse struct {
	IdempotencyKey  string `json:"idempotency_key"`
	Sender          string `json:"sender"`
	Receiver        string `json:"receiver"`
	Amount          int64  `json:"amount"`
	SenderBalance   int64  `json:"sender_balance"`
	ReceiverBalance int64  `json:"receiver_balance"`
	Replayed        bool   `json:"replayed"`
}

// TransferFromDomain converts a domain result to response.
func TransferFromDomain(r *domain.TransferResult) *TransferResponse {
	return &TransferResponse{
		IdempotencyKey:  r.IdempotencyKey,
		Sender:          r.Sender,
		Receiver:        r.Receiver,
		Amount:          r.Amount,
		SenderBalance:   r.SenderBalance,
		ReceiverBalance: r.ReceiverBalance,
		Replayed:        r.Replayed,
	}
}

// AccountResponse represents an account balance in API responses.
type AccountResponse struct {
	ID        string     `json:"id"`
	Balance   int64      `json:"balance"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:      a.ID,
		Balance: a.Balance,
	}
	if !a.UpdatedAt.IsZero() {
		updatedAt := a.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// MessageResponse is the body of every successful response.
type MessageResponse struct {
	Message  string            `json:"message"`
	Transfer *TransferResponse `json:"transfer,omitempty"`
	Account  *AccountResponse  `json:"account,omitempty"`
}

// FromResponse converts a gateway response to its JSON body.
func FromResponse(resp domain.Response) *MessageResponse {
	body := &MessageResponse{Message: resp.Body}
	if resp.Transfer != nil {
		body.Transfer = TransferFromDomain(resp.Transfer)
	}
	if resp.Account != nil {
		body.Account = AccountFromDomain(resp.Account)
	}
	return body
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
