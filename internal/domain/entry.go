package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry for display and search.
type EntryType string

const (
	EntryTypeDeposit     EntryType = "deposit"
	EntryTypeTransferIn  EntryType = "transfer_in"
	EntryTypeTransferOut EntryType = "transfer_out"
	EntryTypePayment     EntryType = "payment"
)

// Direction is the movement of funds an entry represents.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// LedgerEntry is one recorded movement of funds on an account.
// Entries are created by the backend only and never mutated afterwards.
// A zero OccurredAt marks a timestamp that could not be parsed.
type LedgerEntry struct {
	OccurredAt             time.Time
	ID                     string
	AccountID              string
	Type                   EntryType
	Description            string
	Counterparty           string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
}

// IsCredit reports an inflow.
func (e *LedgerEntry) IsCredit() bool {
	return e.Amount.IsPositive()
}

// IsDebit reports an outflow.
func (e *LedgerEntry) IsDebit() bool {
	return e.Amount.IsNegative()
}

// Direction classifies the entry; zero amounts are shown as debits.
func (e *LedgerEntry) Direction() Direction {
	if e.IsCredit() {
		return DirectionCredit
	}
	return DirectionDebit
}

// HasValidTime reports whether OccurredAt holds a real instant.
func (e *LedgerEntry) HasValidTime() bool {
	return !e.OccurredAt.IsZero()
}
