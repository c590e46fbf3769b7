package handler

import (
	"context"
	"net/http"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	GetOrCreate(ctx context.Context, session domain.Session) (*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Me returns the session user's account, opening it on first access.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.GetOrCreate(r.Context(), session)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
