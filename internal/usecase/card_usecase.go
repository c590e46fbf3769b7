package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

// CardUseCase manages the payment instruments of a user.
type CardUseCase struct {
	cardRepo CardRepository
	idGen    IDGenerator
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(cardRepo CardRepository, idGen IDGenerator, metrics *metrics.Metrics) *CardUseCase {
	return &CardUseCase{
		cardRepo: cardRepo,
		idGen:    idGen,
		metrics:  metrics,
		now:      time.Now,
	}
}

// AddCardInput represents a card as typed by the user.
type AddCardInput struct {
	Number string
	Holder string
	Expiry string
}

// AddCard validates and stores a card. Only the last four digits of the
// number are kept.
func (uc *CardUseCase) AddCard(ctx context.Context, session domain.Session, input AddCardInput) (*domain.Card, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}

	number := domain.NormalizeCardNumber(input.Number)
	if err := domain.ValidateCardNumber(number); err != nil {
		return nil, err
	}

	holder := strings.TrimSpace(input.Holder)
	if err := domain.ValidateCardHolder(holder); err != nil {
		return nil, err
	}

	expiry := strings.TrimSpace(input.Expiry)
	if err := domain.ValidateExpiry(expiry, uc.now()); err != nil {
		return nil, err
	}

	existing, err := uc.cardRepo.ListByOwner(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	if len(existing) >= domain.MaxCardsPerUser {
		return nil, domain.ErrCardLimitReached
	}

	lastFour := number[len(number)-4:]
	for _, c := range existing {
		if c.LastFour == lastFour && c.Expiry == expiry {
			return nil, domain.ErrCardAlreadyExists
		}
	}

	card := &domain.Card{
		ID:        uc.idGen.Generate(),
		OwnerID:   session.UserID,
		LastFour:  lastFour,
		Holder:    holder,
		Expiry:    expiry,
		Brand:     domain.DetectBrand(number),
		CreatedAt: uc.now().UTC(),
	}

	if err := uc.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CardsRegistered.Inc()
	}

	zerolog.Ctx(ctx).Info().Str("card_id", card.ID).Str("brand", string(card.Brand)).Msg("card registered")

	return card, nil
}

// ListCards returns the session user's cards, newest first.
func (uc *CardUseCase) ListCards(ctx context.Context, session domain.Session) ([]*domain.Card, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.cardRepo.ListByOwner(ctx, session.UserID)
}

// GetCard returns one of the session user's cards.
func (uc *CardUseCase) GetCard(ctx context.Context, session domain.Session, id string) (*domain.Card, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.cardRepo.GetByID(ctx, session.UserID, id)
}

// DeleteCard removes one of the session user's cards.
func (uc *CardUseCase) DeleteCard(ctx context.Context, session domain.Session, id string) error {
	if !session.Valid() {
		return domain.ErrUnauthorized
	}

	if err := uc.cardRepo.Delete(ctx, session.UserID, id); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.CardsRemoved.Inc()
	}

	return nil
}
