package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create records a ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return inTx(tx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:                     entry.ID,
		AccountID:              entry.AccountID,
		Type:                   string(entry.Type),
		Description:            entry.Description,
		Counterparty:           entry.Counterparty,
		Amount:                 decimalToNumeric(entry.Amount),
		AccountPreviousBalance: decimalToNumeric(entry.AccountPreviousBalance),
		AccountCurrentBalance:  decimalToNumeric(entry.AccountCurrentBalance),
		OccurredAt:             timeToPgTimestamptz(entry.OccurredAt),
	})
}

// ListByOwner returns every entry of the user's account, newest first.
func (r *EntryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// GetByID returns one entry if it belongs to ownerID.
func (r *EntryRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetLedgerEntryByOwner(ctx, generated.GetLedgerEntryByOwnerParams{
		OwnerID: ownerID,
		ID:      id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return rowToEntry(row), nil
}

func rowToEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:                     row.ID,
		AccountID:              row.AccountID,
		Type:                   domain.EntryType(row.Type),
		Description:            row.Description,
		Counterparty:           row.Counterparty,
		Amount:                 numericToDecimal(row.Amount),
		AccountPreviousBalance: numericToDecimal(row.AccountPreviousBalance),
		AccountCurrentBalance:  numericToDecimal(row.AccountCurrentBalance),
		OccurredAt:             row.OccurredAt.Time,
	}
}
