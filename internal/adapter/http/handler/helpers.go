package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/domain"
)

// RequestHandler serves domain requests. usecase.Gateway implements it.
type RequestHandler interface {
	Handle(ctx context.Context, req domain.Request) domain.Response
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeResponse renders a gateway response.
func writeResponse(w http.ResponseWriter, resp domain.Response) {
	if resp.Err != nil {
		writeError(w, resp.StatusCode, errorCode(resp.Err), resp.Body)
		return
	}

	writeJSON(w, resp.StatusCode, dto.FromResponse(resp))
}

// errorCode maps domain errors to stable machine-readable codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrSenderNotFound):
		return "sender_not_found"
	case errors.Is(err, domain.ErrReceiverNotFound):
		return "receiver_not_found"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrAmountTooLarge):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrBalanceOverflow):
		return "balance_overflow"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrMissingIdempotencyKey), errors.Is(err, domain.ErrInvalidIdempotencyKey):
		return "invalid_idempotency_key"
	case errors.Is(err, domain.ErrInvalidAccountID):
		return "invalid_account_id"
	case errors.Is(err, domain.ErrTransactionFailed):
		return "transaction_failed"
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrThrottled):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
