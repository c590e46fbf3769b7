package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// CardService defines the behavior needed by CardHandler.
type CardService interface {
	AddCard(ctx context.Context, session domain.Session, input usecase.AddCardInput) (*domain.Card, error)
	ListCards(ctx context.Context, session domain.Session) ([]*domain.Card, error)
	DeleteCard(ctx context.Context, session domain.Session, id string) error
}

// CardHandler handles stored card requests.
type CardHandler struct {
	cardUC CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardUC CardService) *CardHandler {
	return &CardHandler{cardUC: cardUC}
}

// List returns the session user's cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	cards, err := h.cardUC.ListCards(r.Context(), session)
	if err != nil {
		writeDomainError(w, r, "failed to list cards", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardsFromDomain(cards))
}

// Create registers a card.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req dto.AddCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.cardUC.AddCard(r.Context(), session, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to add card", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CardFromDomain(card))
}

// Delete removes a card.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.cardUC.DeleteCard(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete card", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
