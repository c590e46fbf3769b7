package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
	"github.com/digitalmoneyhouse/dmh/internal/usecase/mocks"
)

type fundsFixture struct {
	accounts  *mocks.MockAccountRepository
	entries   *mocks.MockEntryRepository
	cards     *mocks.MockCardRepository
	services  *mocks.MockServiceRepository
	payments  *mocks.MockPaymentRepository
	outbox    *mocks.MockOutboxRepository
	txManager *mocks.FakeTransactionManager
	cache     *mocks.FakeCache
	retrier   *mocks.FakeRetrier
	metrics   *metrics.Metrics
	uc        *usecase.FundsUseCase
}

func newFundsFixture(t *testing.T) *fundsFixture {
	ctrl := gomock.NewController(t)
	f := &fundsFixture{
		accounts:  mocks.NewMockAccountRepository(ctrl),
		entries:   mocks.NewMockEntryRepository(ctrl),
		cards:     mocks.NewMockCardRepository(ctrl),
		services:  mocks.NewMockServiceRepository(ctrl),
		payments:  mocks.NewMockPaymentRepository(ctrl),
		outbox:    mocks.NewMockOutboxRepository(ctrl),
		txManager: mocks.NewFakeTransactionManager(),
		cache:     mocks.NewFakeCache(),
		retrier:   &mocks.FakeRetrier{Attempts: 3, Retryable: isTransient},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}

	f.uc = usecase.NewFundsUseCase(usecase.FundsDeps{
		TxManager:   f.txManager,
		AccountRepo: f.accounts,
		EntryRepo:   f.entries,
		CardRepo:    f.cards,
		ServiceRepo: f.services,
		PaymentRepo: f.payments,
		OutboxRepo:  f.outbox,
		IDGen:       mocks.NewFakeIDGenerator("id"),
		Retrier:     f.retrier,
		Cache:       f.cache,
		Metrics:     f.metrics,
	}, decimal.NewFromInt(1_500_000))

	return f
}

var errTransient = errors.New("deadlock detected")

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func wallet(balance int64) *domain.Account {
	return &domain.Account{ID: "acc-1", OwnerID: "user-1", Alias: "sol.rio.mate", Balance: decimal.NewFromInt(balance)}
}

func TestFundsUseCase_LoadFunds(t *testing.T) {
	f := newFundsFixture(t)
	_ = f.cache.Set(context.Background(), "activity:user-1", []byte("{}"), time.Minute)

	card := &domain.Card{ID: "card-1", OwnerID: "user-1", LastFour: "4242"}
	var entry *domain.LedgerEntry
	var event *domain.OutboxEvent

	f.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(wallet(500), nil)
	f.cards.EXPECT().GetByID(gomock.Any(), "user-1", "card-1").Return(card, nil)
	f.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "acc-1").Return(wallet(500), nil)
	f.entries.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ usecase.Transaction, e *domain.LedgerEntry) error {
			entry = e
			return nil
		})
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), "acc-1", decimal.NewFromInt(1500), gomock.Any()).Return(nil)
	f.outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) error {
			event = e
			return nil
		})

	balance, err := f.uc.LoadFunds(context.Background(), domain.LoadFundsRequest{
		AccountID: "acc-1",
		CardID:    "card-1",
		Amount:    decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected balance 1500, got %s", balance)
	}
	if entry.Type != domain.EntryTypeDeposit || !entry.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected entry %+v", entry)
	}
	if !entry.AccountPreviousBalance.Equal(decimal.NewFromInt(500)) || !entry.AccountCurrentBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("unexpected balances on entry: %s -> %s", entry.AccountPreviousBalance, entry.AccountCurrentBalance)
	}
	if entry.Counterparty != "**** 4242" {
		t.Errorf("expected masked card as counterparty, got %q", entry.Counterparty)
	}
	if event.EventType != domain.EventTypeFundsLoaded || event.Payload["new_balance"] != "1500" {
		t.Errorf("unexpected event %+v", event)
	}
	if f.txManager.Committed() != 1 {
		t.Errorf("expected one commit, got %d", f.txManager.Committed())
	}
	if f.cache.Has("activity:user-1") {
		t.Error("expected activity cache to be invalidated")
	}
	if got := testutil.ToFloat64(f.metrics.FundsLoaded); got != 1 {
		t.Errorf("expected funds loaded metric 1, got %v", got)
	}
}

func TestFundsUseCase_LoadFunds_Validation(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		setupMocks  func(*fundsFixture)
		expectError error
	}{
		{
			name:        "above ceiling",
			amount:      decimal.NewFromInt(2_000_000),
			setupMocks:  func(*fundsFixture) {},
			expectError: domain.ErrAmountTooLarge,
		},
		{
			name:        "zero amount",
			amount:      decimal.Zero,
			setupMocks:  func(*fundsFixture) {},
			expectError: domain.ErrInvalidAmount,
		},
		{
			name:   "card of another user",
			amount: decimal.NewFromInt(100),
			setupMocks: func(f *fundsFixture) {
				f.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(wallet(0), nil)
				f.cards.EXPECT().GetByID(gomock.Any(), "user-1", "card-1").Return(nil, domain.ErrCardNotFound)
			},
			expectError: domain.ErrCardNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFundsFixture(t)
			tt.setupMocks(f)

			_, err := f.uc.LoadFunds(context.Background(), domain.LoadFundsRequest{
				AccountID: "acc-1",
				CardID:    "card-1",
				Amount:    tt.amount,
			})
			if !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
			if len(f.txManager.Transactions()) != 0 {
				t.Error("expected no transaction to be started")
			}
		})
	}
}

func TestFundsUseCase_LoadFunds_RetriesTransientFailure(t *testing.T) {
	f := newFundsFixture(t)

	f.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(wallet(0), nil)
	f.cards.EXPECT().GetByID(gomock.Any(), "user-1", "card-1").Return(&domain.Card{ID: "card-1", LastFour: "4242"}, nil)
	gomock.InOrder(
		f.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "acc-1").Return(nil, errTransient),
		f.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "acc-1").Return(wallet(0), nil),
	)
	f.entries.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), "acc-1", gomock.Any(), gomock.Any()).Return(nil)
	f.outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	balance, err := f.uc.LoadFunds(context.Background(), domain.LoadFundsRequest{
		AccountID: "acc-1",
		CardID:    "card-1",
		Amount:    decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected balance 10, got %s", balance)
	}
	if f.retrier.Calls != 2 {
		t.Errorf("expected 2 attempts, got %d", f.retrier.Calls)
	}

	txs := f.txManager.Transactions()
	if len(txs) != 2 || !txs[0].RolledBack || !txs[1].Committed {
		t.Errorf("expected first attempt rolled back and second committed")
	}
}

func TestFundsUseCase_PayBill_FromBalance(t *testing.T) {
	f := newFundsFixture(t)
	service := &domain.BillService{ID: "edenor", Name: "Edenor", InvoiceValue: decimal.NewFromInt(1200)}

	var entry *domain.LedgerEntry
	f.services.EXPECT().GetByID(gomock.Any(), "edenor").Return(service, nil)
	f.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(wallet(5000), nil)
	f.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "acc-1").Return(wallet(5000), nil)
	f.entries.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ usecase.Transaction, e *domain.LedgerEntry) error {
			entry = e
			return nil
		})
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), "acc-1", decimal.NewFromInt(3800), gomock.Any()).Return(nil)
	f.payments.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	payment, err := f.uc.PayBill(context.Background(), domain.PayBillRequest{
		AccountID: "acc-1",
		ServiceID: "edenor",
		Reference: "12345678901",
		Method:    domain.PaymentMethodBalance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.ID == "" || payment.ServiceName != "Edenor" || !payment.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("unexpected payment %+v", payment)
	}
	if entry.Type != domain.EntryTypePayment || !entry.Amount.Equal(decimal.NewFromInt(-1200)) {
		t.Errorf("expected a -1200 payment entry, got %+v", entry)
	}
	if got := testutil.ToFloat64(f.metrics.BillsPaid.WithLabelValues("balance")); got != 1 {
		t.Errorf("expected bills paid metric 1, got %v", got)
	}
}

func TestFundsUseCase_PayBill_WithCardLeavesBalance(t *testing.T) {
	f := newFundsFixture(t)
	service := &domain.BillService{ID: "edenor", Name: "Edenor", InvoiceValue: decimal.NewFromInt(1200)}

	f.services.EXPECT().GetByID(gomock.Any(), "edenor").Return(service, nil)
	f.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(wallet(0), nil)
	f.cards.EXPECT().GetByID(gomock.Any(), "user-1", "card-1").Return(&domain.Card{ID: "card-1"}, nil)
	f.payments.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ usecase.Transaction, p *domain.Payment) error {
			if p.CardID != "card-1" || p.Method != domain.PaymentMethodCard {
				t.Errorf("unexpected payment %+v", p)
			}
			return nil
		})
	f.outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.uc.PayBill(context.Background(), domain.PayBillRequest{
		AccountID: "acc-1",
		ServiceID: "edenor",
		Reference: "12345678901",
		Method:    domain.PaymentMethodCard,
		CardID:    "card-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFundsUseCase_PayBill_Errors(t *testing.T) {
	service := &domain.BillService{ID: "edenor", Name: "Edenor", InvoiceValue: decimal.NewFromInt(1200)}

	tests := []struct {
		name        string
		req         domain.PayBillRequest
		setupMocks  func(*fundsFixture)
		expectError error
	}{
		{
			name:        "unknown method",
			req:         domain.PayBillRequest{Method: "cash", Reference: "12345678901"},
			setupMocks:  func(*fundsFixture) {},
			expectError: domain.ErrInvalidPaymentMethod,
		},
		{
			name:        "bad reference",
			req:         domain.PayBillRequest{Method: domain.PaymentMethodBalance, Reference: "12"},
			setupMocks:  func(*fundsFixture) {},
			expectError: domain.ErrInvalidReference,
		},
		{
			name: "amount differs from invoice",
			req:  domain.PayBillRequest{ServiceID: "edenor", Method: domain.PaymentMethodBalance, Reference: "12345678901", Amount: decimal.NewFromInt(1)},
			setupMocks: func(f *fundsFixture) {
				f.services.EXPECT().GetByID(gomock.Any(), "edenor").Return(service, nil)
			},
			expectError: domain.ErrInvalidAmount,
		},
		{
			name: "insufficient funds",
			req:  domain.PayBillRequest{AccountID: "acc-1", ServiceID: "edenor", Method: domain.PaymentMethodBalance, Reference: "12345678901"},
			setupMocks: func(f *fundsFixture) {
				f.services.EXPECT().GetByID(gomock.Any(), "edenor").Return(service, nil)
				f.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(wallet(100), nil)
				f.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "acc-1").Return(wallet(100), nil)
			},
			expectError: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFundsFixture(t)
			tt.setupMocks(f)

			_, err := f.uc.PayBill(context.Background(), tt.req)
			if !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
			if f.txManager.Committed() != 0 {
				t.Error("expected nothing committed")
			}
		})
	}
}
