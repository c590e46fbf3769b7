package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer represents money sent from one wallet account to another.
type Transfer struct {
	CreatedAt     time.Time
	ID            string
	FromAccountID string
	ToAccountID   string
	Description   string
	Amount        decimal.Decimal
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}
