package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillService is a company whose invoices can be paid from the wallet.
type BillService struct {
	CreatedAt    time.Time
	ID           string
	Name         string
	InvoiceValue decimal.Decimal
}

// PaymentMethod is the instrument used to settle a bill.
type PaymentMethod string

const (
	PaymentMethodBalance PaymentMethod = "balance"
	PaymentMethodCard    PaymentMethod = "card"
)

// IsValid reports a known method.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodBalance || m == PaymentMethodCard
}

// Payment is a settled bill.
type Payment struct {
	CreatedAt   time.Time
	ID          string
	AccountID   string
	ServiceID   string
	ServiceName string
	Reference   string
	Method      PaymentMethod
	CardID      string
	Amount      decimal.Decimal
}

// LoadFundsRequest asks the backend to credit an account from a card.
type LoadFundsRequest struct {
	AccountID string
	CardID    string
	Amount    decimal.Decimal
}

// PayBillRequest asks the backend to settle an invoice.
type PayBillRequest struct {
	AccountID string
	ServiceID string
	Reference string
	Method    PaymentMethod
	CardID    string
	Amount    decimal.Decimal
}
