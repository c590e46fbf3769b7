package postgres

import (
	"context"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct{}

// NewTransferRepository creates a new TransferRepository. Transfers are
// only written inside transactions, so it holds no connection.
func NewTransferRepository() *TransferRepository {
	return &TransferRepository{}
}

// Create records a transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	return inTx(tx).CreateTransfer(ctx, generated.CreateTransferParams{
		ID:            transfer.ID,
		FromAccountID: transfer.FromAccountID,
		ToAccountID:   transfer.ToAccountID,
		Description:   transfer.Description,
		Amount:        decimalToNumeric(transfer.Amount),
		CreatedAt:     timeToPgTimestamptz(transfer.CreatedAt),
	})
}
