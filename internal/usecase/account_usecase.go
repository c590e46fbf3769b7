package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

// cvuPrefix identifies the wallet as the issuing entity of its CVUs.
const cvuPrefix = "0000003100"

var aliasWords = []string{
	"sol", "luna", "rio", "mar", "monte", "campo", "viento", "nube",
	"mate", "tango", "pampa", "cielo", "lago", "roca", "bosque", "arena",
	"gato", "perro", "puma", "condor", "llama", "zorro", "tero", "hornero",
	"rojo", "azul", "verde", "gris", "oro", "plata", "cobre", "jade",
}

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics

	newCVU   func() string
	newAlias func() string
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
		newCVU:      randomCVU,
		newAlias:    randomAlias,
	}
}

// GetAccount returns the session user's account.
func (uc *AccountUseCase) GetAccount(ctx context.Context, session domain.Session) (*domain.Account, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.accountRepo.GetByOwner(ctx, session.UserID)
}

// GetOrCreate returns the session user's account, creating it with a fresh
// CVU and alias on first access.
func (uc *AccountUseCase) GetOrCreate(ctx context.Context, session domain.Session) (*domain.Account, error) {
	account, err := uc.GetAccount(ctx, session)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= aliasAttempts; attempt++ {
		account, err = uc.create(ctx, session)
		switch {
		case err == nil:
			zerolog.Ctx(ctx).Info().
				Str("account_id", account.ID).
				Str("user_id", session.UserID).
				Msg("account created")
			return account, nil
		case errors.Is(err, domain.ErrAccountAlreadyExists):
			// Lost a race with a concurrent first access.
			return uc.accountRepo.GetByOwner(ctx, session.UserID)
		case errors.Is(err, domain.ErrAccountNumberTaken):
			zerolog.Ctx(ctx).Debug().Int("attempt", attempt).Msg("generated account number taken, retrying")
			continue
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: after %d attempts", domain.ErrAccountNumberTaken, aliasAttempts)
}

func (uc *AccountUseCase) create(ctx context.Context, session domain.Session) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		OwnerID:   session.UserID,
		CVU:       uc.newCVU(),
		Alias:     uc.newAlias(),
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountCreated,
		Payload: map[string]any{
			"account_id": account.ID,
			"owner_id":   account.OwnerID,
			"cvu":        account.CVU,
			"alias":      account.Alias,
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// ResolveDestination finds the account behind a CVU or an alias.
func (uc *AccountUseCase) ResolveDestination(ctx context.Context, destination string) (*domain.Account, error) {
	destination = strings.ToLower(strings.TrimSpace(destination))
	if err := domain.ValidateDestination(destination); err != nil {
		return nil, err
	}

	if domain.IsCVU(destination) {
		return uc.accountRepo.GetByCVU(ctx, destination)
	}
	return uc.accountRepo.GetByAlias(ctx, destination)
}

func randomCVU() string {
	var b strings.Builder
	b.WriteString(cvuPrefix)
	for b.Len() < domain.CVULength {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

func randomAlias() string {
	words := make([]string, 3)
	for i := range words {
		words[i] = aliasWords[rand.IntN(len(aliasWords))]
	}
	return strings.Join(words, ".")
}
