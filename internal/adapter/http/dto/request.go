package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iho/gotransfer/internal/domain"
)

// IdempotencyKeyHeader is accepted when the body carries no key.
const IdempotencyKeyHeader = "Idempotency-Key"

// TransferRequest represents a request to transfer balance.
type TransferRequest struct {
	Sender         string          `json:"sender"`
	Receiver       string          `json:"receiver"`
	Amount         json.RawMessage `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// ToDomain converts to a domain request. headerKey is used when the body
// omits idempotency_key.
func (r *TransferRequest) ToDomain(headerKey string) (domain.TransferRequest, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return domain.TransferRequest{}, err
	}

	key := strings.TrimSpace(r.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(headerKey)
	}

	return domain.TransferRequest{
		Sender:         strings.TrimSpace(r.Sender),
		Receiver:       strings.TrimSpace(r.Receiver),
		Amount:         amount,
		IdempotencyKey: key,
	}, nil
}

// parseAmount accepts a bare JSON integer only. Quoted, fractional or
// non-numeric amounts are invalid amounts rather than decoding errors.
func parseAmount(raw json.RawMessage) (int64, error) {
	token := string(bytes.TrimSpace(raw))
	if token == "" || token == "null" {
		return 0, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}

	amount, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a whole number", domain.ErrInvalidAmount, token)
	}

	return amount, nil
}
