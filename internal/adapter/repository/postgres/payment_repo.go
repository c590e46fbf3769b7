package postgres

import (
	"context"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct{}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

// Create records a settled bill. CardID is stored as NULL for balance
// payments.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	return inTx(tx).CreatePayment(ctx, generated.CreatePaymentParams{
		ID:          payment.ID,
		AccountID:   payment.AccountID,
		ServiceID:   payment.ServiceID,
		ServiceName: payment.ServiceName,
		Reference:   payment.Reference,
		Method:      string(payment.Method),
		CardID:      textOrNull(payment.CardID),
		Amount:      decimalToNumeric(payment.Amount),
		CreatedAt:   timeToPgTimestamptz(payment.CreatedAt),
	})
}
