package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
)

// maxTransferBody bounds the request body of a transfer.
const maxTransferBody = 64 << 10

// TransferHandler handles transfer requests.
type TransferHandler struct {
	gateway RequestHandler
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(gateway RequestHandler) *TransferHandler {
	return &TransferHandler{gateway: gateway}
}

// Create handles POST /transfers.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTransferBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	transfer, err := req.ToDomain(r.Header.Get(dto.IdempotencyKeyHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorCode(err), err.Error())
		return
	}

	writeResponse(w, h.gateway.Handle(r.Context(), transfer))
}
