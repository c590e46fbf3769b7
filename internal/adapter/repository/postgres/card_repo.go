package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
)

// CardRepository implements usecase.CardRepository. Every lookup is
// scoped to the owner, so cards of other users read as not found.
type CardRepository struct {
	queries *generated.Queries
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db generated.DBTX) *CardRepository {
	return &CardRepository{queries: generated.New(db)}
}

// Create stores a card.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	err := r.queries.CreateCard(ctx, generated.CreateCardParams{
		ID:        card.ID,
		OwnerID:   card.OwnerID,
		LastFour:  card.LastFour,
		Holder:    card.Holder,
		Expiry:    card.Expiry,
		Brand:     string(card.Brand),
		CreatedAt: timeToPgTimestamptz(card.CreatedAt),
	})

	if constraint, ok := uniqueViolation(err); ok && constraint == constraintCardNumber {
		return domain.ErrCardAlreadyExists
	}

	return err
}

// GetByID returns a card of ownerID.
func (r *CardRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Card, error) {
	row, err := r.queries.GetCardByOwner(ctx, generated.GetCardByOwnerParams{
		OwnerID: ownerID,
		ID:      id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}

		return nil, err
	}

	return rowToCard(row), nil
}

// ListByOwner returns the cards of ownerID, newest first.
func (r *CardRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Card, error) {
	rows, err := r.queries.ListCardsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, rowToCard(row))
	}

	return cards, nil
}

// CountByOwner counts the cards of ownerID.
func (r *CardRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := r.queries.CountCardsByOwner(ctx, ownerID)
	return int(n), err
}

// Delete removes a card of ownerID.
func (r *CardRepository) Delete(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteCardByOwner(ctx, generated.DeleteCardByOwnerParams{
		OwnerID: ownerID,
		ID:      id,
	})
	if err != nil {
		return err
	}

	if n == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

func rowToCard(row generated.Card) *domain.Card {
	return &domain.Card{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		LastFour:  row.LastFour,
		Holder:    row.Holder,
		Expiry:    row.Expiry,
		Brand:     domain.CardBrand(row.Brand),
		CreatedAt: row.CreatedAt.Time,
	}
}
