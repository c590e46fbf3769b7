package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

// TransferUseCase handles sending money between wallet accounts.
type TransferUseCase struct {
	txManager    TransactionManager
	accounts     *AccountUseCase
	accountRepo  AccountRepository
	transferRepo TransferRepository
	entryRepo    EntryRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	retrier      Retrier
	cache        Cache
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accounts *AccountUseCase,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		accounts:     accounts,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		entryRepo:    entryRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		retrier:      retrier,
		cache:        cache,
		metrics:      metrics,
	}
}

// SendMoneyInput represents input for sending money.
type SendMoneyInput struct {
	// Destination is a 22-digit CVU or a word.word.word alias.
	Destination string
	Description string
	Amount      decimal.Decimal
}

// SendMoney moves Amount from the session user's account to the account
// behind Destination. Both balances, both ledger entries and the outbox
// event are written in one transaction.
func (uc *TransferUseCase) SendMoney(ctx context.Context, session domain.Session, input SendMoneyInput) (*domain.Transfer, error) {
	start := time.Now()

	// 0. Validate inputs before starting transaction
	if err := domain.ValidateAmount(input.Amount, decimal.Zero); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(input.Description)
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}

	from, err := uc.accounts.GetAccount(ctx, session)
	if err != nil {
		return nil, err
	}

	to, err := uc.accounts.ResolveDestination(ctx, input.Destination)
	if err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Description:   description,
		Amount:        input.Amount,
	}
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	err = uc.retry(ctx, func() error {
		return uc.sendTx(ctx, transfer)
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.OperationErrors.WithLabelValues("send_money").Inc()
		}
		return nil, err
	}

	invalidateActivity(ctx, uc.cache, from.OwnerID)
	invalidateActivity(ctx, uc.cache, to.OwnerID)

	if uc.metrics != nil {
		uc.metrics.TransfersSent.Inc()
		uc.metrics.TransferAmount.Observe(input.Amount.InexactFloat64())
		uc.metrics.OperationDuration.WithLabelValues("send_money").Observe(time.Since(start).Seconds())
	}

	zerolog.Ctx(ctx).Info().
		Str("transfer_id", transfer.ID).
		Str("from_account_id", transfer.FromAccountID).
		Str("to_account_id", transfer.ToAccountID).
		Msg("transfer sent")

	return transfer, nil
}

func (uc *TransferUseCase) sendTx(ctx context.Context, transfer *domain.Transfer) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Sort account IDs (DEADLOCK PREVENTION)
	ids := []string{transfer.FromAccountID, transfer.ToAccountID}
	sort.Strings(ids)

	// 2. Begin transaction
	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	// 3. Lock accounts in sorted order
	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, ids)
	if err != nil {
		return err
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	from, to := accountMap[transfer.FromAccountID], accountMap[transfer.ToAccountID]
	if from == nil || to == nil {
		return domain.ErrAccountNotFound
	}

	// 4. Validate debit against the locked balance
	if err := from.ValidateDebit(transfer.Amount); err != nil {
		return err
	}

	now := time.Now().UTC()
	transfer.ID = uc.idGen.Generate()
	transfer.CreatedAt = now

	if err := uc.transferRepo.Create(txCtx, tx, transfer); err != nil {
		return err
	}

	// 5. Debit side
	fromNewBalance := from.ApplyDebit(transfer.Amount)
	fromEntry := &domain.LedgerEntry{
		ID:                     uc.idGen.Generate(),
		AccountID:              from.ID,
		Type:                   domain.EntryTypeTransferOut,
		Description:            describe("Transferiste dinero", transfer.Description),
		Counterparty:           to.Alias,
		Amount:                 transfer.Amount.Neg(),
		AccountPreviousBalance: from.Balance,
		AccountCurrentBalance:  fromNewBalance,
		OccurredAt:             now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, fromEntry); err != nil {
		return err
	}
	if err := uc.accountRepo.UpdateBalance(txCtx, tx, from.ID, fromNewBalance, now); err != nil {
		return err
	}

	// 6. Credit side
	toNewBalance := to.ApplyCredit(transfer.Amount)
	toEntry := &domain.LedgerEntry{
		ID:                     uc.idGen.Generate(),
		AccountID:              to.ID,
		Type:                   domain.EntryTypeTransferIn,
		Description:            describe("Te transfirieron dinero", transfer.Description),
		Counterparty:           from.Alias,
		Amount:                 transfer.Amount,
		AccountPreviousBalance: to.Balance,
		AccountCurrentBalance:  toNewBalance,
		OccurredAt:             now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, toEntry); err != nil {
		return err
	}
	if err := uc.accountRepo.UpdateBalance(txCtx, tx, to.ID, toNewBalance, now); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transfer.ID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferSent,
		Payload: map[string]any{
			"transfer_id":     transfer.ID,
			"from_account_id": transfer.FromAccountID,
			"to_account_id":   transfer.ToAccountID,
			"amount":          transfer.Amount.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	// 7. Commit transaction
	return tx.Commit(txCtx)
}

func (uc *TransferUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func describe(base, note string) string {
	if note == "" {
		return base
	}
	return base + ": " + note
}
