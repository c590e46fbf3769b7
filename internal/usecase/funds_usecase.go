package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

// FundsUseCase moves money into and out of a wallet account: card
// top-ups and bill payments. Each operation is one database transaction
// covering the balance, the ledger entry and the outbox event.
type FundsUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	cardRepo    CardRepository
	serviceRepo ServiceRepository
	paymentRepo PaymentRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	metrics     *metrics.Metrics
	maxAmount   decimal.Decimal
}

// FundsDeps groups the collaborators of FundsUseCase.
type FundsDeps struct {
	TxManager   TransactionManager
	AccountRepo AccountRepository
	EntryRepo   EntryRepository
	CardRepo    CardRepository
	ServiceRepo ServiceRepository
	PaymentRepo PaymentRepository
	OutboxRepo  OutboxRepository
	IDGen       IDGenerator
	Retrier     Retrier
	Cache       Cache
	Metrics     *metrics.Metrics
}

// NewFundsUseCase creates a new FundsUseCase. A non-positive maxAmount
// falls back to domain.DefaultMaxLoadAmount.
func NewFundsUseCase(deps FundsDeps, maxAmount decimal.Decimal) *FundsUseCase {
	if !maxAmount.IsPositive() {
		maxAmount = decimal.RequireFromString(domain.DefaultMaxLoadAmount)
	}

	return &FundsUseCase{
		txManager:   deps.TxManager,
		accountRepo: deps.AccountRepo,
		entryRepo:   deps.EntryRepo,
		cardRepo:    deps.CardRepo,
		serviceRepo: deps.ServiceRepo,
		paymentRepo: deps.PaymentRepo,
		outboxRepo:  deps.OutboxRepo,
		idGen:       deps.IDGen,
		retrier:     deps.Retrier,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		maxAmount:   maxAmount,
	}
}

// MaxAmount is the top-up ceiling.
func (uc *FundsUseCase) MaxAmount() decimal.Decimal {
	return uc.maxAmount
}

// LoadFunds credits req.Amount from one of the owner's cards and returns
// the new balance.
func (uc *FundsUseCase) LoadFunds(ctx context.Context, req domain.LoadFundsRequest) (decimal.Decimal, error) {
	start := time.Now()

	if err := domain.ValidateAmount(req.Amount, uc.maxAmount); err != nil {
		return decimal.Zero, err
	}

	account, err := uc.accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return decimal.Zero, err
	}

	card, err := uc.cardRepo.GetByID(ctx, account.OwnerID, req.CardID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = uc.retry(ctx, func() error {
		balance, err = uc.loadFundsTx(ctx, req, card)
		return err
	})
	if err != nil {
		uc.fail("load_funds")
		return decimal.Zero, err
	}

	invalidateActivity(ctx, uc.cache, account.OwnerID)

	if uc.metrics != nil {
		uc.metrics.FundsLoaded.Inc()
		uc.metrics.FundsLoadedAmount.Observe(req.Amount.InexactFloat64())
		uc.metrics.OperationDuration.WithLabelValues("load_funds").Observe(time.Since(start).Seconds())
	}

	zerolog.Ctx(ctx).Info().
		Str("account_id", req.AccountID).
		Str("amount", req.Amount.String()).
		Msg("funds loaded")

	return balance, nil
}

func (uc *FundsUseCase) loadFundsTx(ctx context.Context, req domain.LoadFundsRequest, card *domain.Card) (decimal.Decimal, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(txCtx)

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, req.AccountID)
	if err != nil {
		return decimal.Zero, err
	}

	now := time.Now().UTC()
	newBalance := account.ApplyCredit(req.Amount)

	entry := &domain.LedgerEntry{
		ID:                     uc.idGen.Generate(),
		AccountID:              account.ID,
		Type:                   domain.EntryTypeDeposit,
		Description:            "Cargaste dinero",
		Counterparty:           card.Masked(),
		Amount:                 req.Amount,
		AccountPreviousBalance: account.Balance,
		AccountCurrentBalance:  newBalance,
		OccurredAt:             now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return decimal.Zero, err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, newBalance, now); err != nil {
		return decimal.Zero, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeFundsLoaded,
		Payload: map[string]any{
			"account_id":  account.ID,
			"entry_id":    entry.ID,
			"card_id":     card.ID,
			"amount":      req.Amount.String(),
			"new_balance": newBalance.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// PayBill settles an invoice of a catalog service. Balance payments debit
// the account and add a ledger entry; card payments are only recorded.
func (uc *FundsUseCase) PayBill(ctx context.Context, req domain.PayBillRequest) (*domain.Payment, error) {
	start := time.Now()

	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentMethod, req.Method)
	}

	reference := strings.TrimSpace(req.Reference)
	if err := domain.ValidateBillReference(reference); err != nil {
		return nil, err
	}

	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	if !req.Amount.IsZero() && !req.Amount.Equal(service.InvoiceValue) {
		return nil, fmt.Errorf("%w: invoice is %s", domain.ErrInvalidAmount, service.InvoiceValue)
	}

	account, err := uc.accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	var card *domain.Card
	if req.Method == domain.PaymentMethodCard {
		card, err = uc.cardRepo.GetByID(ctx, account.OwnerID, req.CardID)
		if err != nil {
			return nil, err
		}
	}

	payment := &domain.Payment{
		AccountID:   account.ID,
		ServiceID:   service.ID,
		ServiceName: service.Name,
		Reference:   reference,
		Method:      req.Method,
		Amount:      service.InvoiceValue,
	}
	if card != nil {
		payment.CardID = card.ID
	}

	err = uc.retry(ctx, func() error {
		return uc.payBillTx(ctx, payment)
	})
	if err != nil {
		uc.fail("pay_bill")
		return nil, err
	}

	invalidateActivity(ctx, uc.cache, account.OwnerID)

	if uc.metrics != nil {
		uc.metrics.BillsPaid.WithLabelValues(string(payment.Method)).Inc()
		uc.metrics.OperationDuration.WithLabelValues("pay_bill").Observe(time.Since(start).Seconds())
	}

	zerolog.Ctx(ctx).Info().
		Str("payment_id", payment.ID).
		Str("service_id", payment.ServiceID).
		Str("method", string(payment.Method)).
		Msg("bill paid")

	return payment, nil
}

func (uc *FundsUseCase) payBillTx(ctx context.Context, payment *domain.Payment) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	now := time.Now().UTC()
	payment.ID = uc.idGen.Generate()
	payment.CreatedAt = now

	if payment.Method == domain.PaymentMethodBalance {
		account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, payment.AccountID)
		if err != nil {
			return err
		}

		if err := account.ValidateDebit(payment.Amount); err != nil {
			return err
		}

		newBalance := account.ApplyDebit(payment.Amount)
		entry := &domain.LedgerEntry{
			ID:                     uc.idGen.Generate(),
			AccountID:              account.ID,
			Type:                   domain.EntryTypePayment,
			Description:            "Pagaste " + payment.ServiceName,
			Counterparty:           payment.ServiceName,
			Amount:                 payment.Amount.Neg(),
			AccountPreviousBalance: account.Balance,
			AccountCurrentBalance:  newBalance,
			OccurredAt:             now,
		}
		if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
			return err
		}

		if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, newBalance, now); err != nil {
			return err
		}
	}

	if err := uc.paymentRepo.Create(txCtx, tx, payment); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   payment.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     domain.EventTypeBillPaid,
		Payload: map[string]any{
			"payment_id": payment.ID,
			"account_id": payment.AccountID,
			"service_id": payment.ServiceID,
			"method":     string(payment.Method),
			"amount":     payment.Amount.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func (uc *FundsUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *FundsUseCase) fail(operation string) {
	if uc.metrics != nil {
		uc.metrics.OperationErrors.WithLabelValues(operation).Inc()
	}
}
