package handler

import (
	"context"
	"net/http"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	SendMoney(ctx context.Context, session domain.Session, input usecase.SendMoneyInput) (*domain.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Create sends money to another wallet by CVU or alias.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req dto.SendMoneyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	transfer, err := h.transferUC.SendMoney(r.Context(), session, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to send money", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}
