package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the single ARS wallet account owned by a user.
type Account struct {
	ID        string
	OwnerID   string
	CVU       string
	Alias     string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if the account balance covers amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Owns reports whether the session user owns the account.
func (a *Account) Owns(s Session) bool {
	return a.OwnerID != "" && a.OwnerID == s.UserID
}
