package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountHandler handles balance queries.
type AccountHandler struct {
	gateway RequestHandler
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(gateway RequestHandler) *AccountHandler {
	return &AccountHandler{gateway: gateway}
}

// GetBalance handles GET /accounts/{id}/balance and GET /balance?id=.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}

	writeResponse(w, h.gateway.Handle(r.Context(), domain.BalanceQuery{AccountID: id}))
}
