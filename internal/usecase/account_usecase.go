package usecase

import (
	"context"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountUseCase handles balance lookups.
type AccountUseCase struct {
	store AccountStore
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(store AccountStore) *AccountUseCase {
	return &AccountUseCase{store: store}
}

// GetBalance retrieves an account by ID.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (*domain.Account, error) {
	if err := domain.ValidateAccountID(id); err != nil {
		return nil, err
	}

	return uc.store.GetAccount(ctx, id)
}
