package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iho/gotransfer/internal/domain"
)

// TransferService executes transfers.
type TransferService interface {
	Execute(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)
}

// BalanceService looks up balances.
type BalanceService interface {
	GetBalance(ctx context.Context, id string) (*domain.Account, error)
}

// Gateway is the single entry point for inbound requests. It dispatches
// each request kind to its operation and maps the outcome to a Response.
type Gateway struct {
	transfers TransferService
	balances  BalanceService
	keys      *KeyResolver
}

// NewGateway creates a new Gateway.
func NewGateway(transfers TransferService, balances BalanceService, keys *KeyResolver) *Gateway {
	return &Gateway{
		transfers: transfers,
		balances:  balances,
		keys:      keys,
	}
}

// Handle dispatches req and never returns a nil Response.
func (g *Gateway) Handle(ctx context.Context, req domain.Request) domain.Response {
	if req == nil {
		return errorResponse(http.StatusBadRequest, errors.New("empty request"))
	}

	switch r := req.(type) {
	case domain.TransferRequest:
		return g.transfer(ctx, r)
	case domain.BalanceQuery:
		return g.balance(ctx, r)
	default:
		return errorResponse(http.StatusBadRequest, fmt.Errorf("unsupported request kind %q", req.Kind()))
	}
}

func (g *Gateway) transfer(ctx context.Context, req domain.TransferRequest) domain.Response {
	req, err := g.keys.Resolve(req)
	if err != nil {
		return errorResponse(http.StatusBadRequest, err)
	}

	result, err := g.transfers.Execute(ctx, req)
	if err != nil {
		if domain.IsValidation(err) {
			return errorResponse(http.StatusBadRequest, err)
		}
		return errorResponse(http.StatusInternalServerError, err)
	}

	status := http.StatusOK
	if result.Replayed {
		status = http.StatusCreated
	}

	return domain.Response{
		StatusCode: status,
		Body:       result.Message(),
		Transfer:   result,
	}
}

func (g *Gateway) balance(ctx context.Context, req domain.BalanceQuery) domain.Response {
	account, err := g.balances.GetBalance(ctx, req.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return errorResponse(http.StatusNotFound, err)
		case domain.IsValidation(err):
			return errorResponse(http.StatusBadRequest, err)
		default:
			return errorResponse(http.StatusInternalServerError, err)
		}
	}

	return domain.Response{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("user %s has balance %d", account.ID, account.Balance),
		Account:    account,
	}
}

func errorResponse(status int, err error) domain.Response {
	return domain.Response{
		StatusCode: status,
		Body:       err.Error(),
		Err:        err,
	}
}
