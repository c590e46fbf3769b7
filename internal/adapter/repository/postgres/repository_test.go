package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

var accountColumns = []string{"id", "owner_id", "cvu", "alias", "balance", "version", "created_at", "updated_at"}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBeginTx(readCommitted)
	tx, err := NewTxManager(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestAccountRepository_GetByOwner(t *testing.T) {
	pool := newMockPool(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	pool.ExpectQuery("FROM accounts WHERE owner_id").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("acc-1", "user-1", "0000003100123456789012", "sol.rio.mate", "1500.25", int64(3), now, now))

	account, err := NewAccountRepository(pool).GetByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID != "acc-1" || account.Alias != "sol.rio.mate" || account.Version != 3 {
		t.Errorf("unexpected account %+v", account)
	}
	if !account.Balance.Equal(decimal.RequireFromString("1500.25")) {
		t.Errorf("expected balance 1500.25, got %s", account.Balance)
	}

	assertExpectations(t, pool)
}

func TestAccountRepository_NotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM accounts WHERE alias").
		WithArgs("nadie.en.casa").
		WillReturnRows(pgxmock.NewRows(accountColumns))

	_, err := NewAccountRepository(pool).GetByAlias(context.Background(), "nadie.en.casa")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepository_CreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraintAccountOwner, domain.ErrAccountAlreadyExists},
		{constraintAccountCVU, domain.ErrAccountNumberTaken},
		{constraintAccountAlias, domain.ErrAccountNumberTaken},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			pool := newMockPool(t)
			tx := beginTx(t, pool)

			pool.ExpectQuery("INSERT INTO accounts").
				WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: tt.constraint})

			err := NewAccountRepository(pool).Create(context.Background(), tx, &domain.Account{
				ID:      "acc-1",
				OwnerID: "user-1",
				Balance: decimal.Zero,
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectExec("UPDATE accounts SET balance").
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := NewAccountRepository(pool).UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(10), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestEntryRepository_ListByOwner(t *testing.T) {
	pool := newMockPool(t)
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	pool.ExpectQuery("FROM ledger_entries e").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "account_id", "type", "description", "counterparty",
			"amount", "account_previous_balance", "account_current_balance", "occurred_at",
		}).
			AddRow("e2", "acc-1", "payment", "Pagaste Edenor", "Edenor", "-1200.00", "1500.00", "300.00", at).
			AddRow("e1", "acc-1", "deposit", "Cargaste dinero", "**** 4242", "1500.00", "0", "1500.00", at.Add(-time.Hour)))

	entries, err := NewEntryRepository(pool).ListByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Type != domain.EntryTypePayment || !entries[0].IsDebit() {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if !entries[0].Amount.Equal(decimal.NewFromInt(-1200)) {
		t.Errorf("expected -1200, got %s", entries[0].Amount)
	}
	if !entries[1].OccurredAt.Equal(at.Add(-time.Hour)) {
		t.Errorf("unexpected timestamp %s", entries[1].OccurredAt)
	}
}

func TestEntryRepository_GetByIDOfAnotherOwner(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("WHERE a.owner_id").
		WithArgs("user-2", "e1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := NewEntryRepository(pool).GetByID(context.Background(), "user-2", "e1")
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestCardRepository_Delete(t *testing.T) {
	pool := newMockPool(t)
	repo := NewCardRepository(pool)

	pool.ExpectExec("DELETE FROM cards").
		WithArgs("user-1", "card-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec("DELETE FROM cards").
		WithArgs("user-1", "card-9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "user-1", "card-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "user-1", "card-9"); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestCardRepository_CreateDuplicate(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("INSERT INTO cards").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintCardNumber})

	err := NewCardRepository(pool).Create(context.Background(), &domain.Card{ID: "card-1", OwnerID: "user-1"})
	if !errors.Is(err, domain.ErrCardAlreadyExists) {
		t.Fatalf("expected ErrCardAlreadyExists, got %v", err)
	}
}

func TestPaymentRepository_CardIDIsNullForBalance(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectExec("INSERT INTO payments").
		WithArgs("pay-1", "acc-1", "edenor", "Edenor", "12345678901", "balance",
			textOrNull(""), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewPaymentRepository().Create(context.Background(), tx, &domain.Payment{
		ID:          "pay-1",
		AccountID:   "acc-1",
		ServiceID:   "edenor",
		ServiceName: "Edenor",
		Reference:   "12345678901",
		Method:      domain.PaymentMethodBalance,
		Amount:      decimal.NewFromInt(1200),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestServiceRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM services WHERE id").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "invoice_value", "created_at"}))

	_, err := NewServiceRepository(pool).GetByID(context.Background(), "nope")
	if !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1500", "-1200.5", "0.01", "1234567.89"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("%s: got %s", s, got)
		}
	}
}
