package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository. db is usually a
// *pgxpool.Pool.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts a new account. Violations of the owner constraint map to
// domain.ErrAccountAlreadyExists, of CVU or alias to
// domain.ErrAccountNumberTaken.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := inTx(tx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		OwnerID:   account.OwnerID,
		Cvu:       account.CVU,
		Alias:     account.Alias,
		Balance:   decimalToNumeric(account.Balance),
		Version:   account.Version,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})

	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintAccountOwner:
			return domain.ErrAccountAlreadyExists
		case constraintAccountCVU, constraintAccountAlias:
			return domain.ErrAccountNumberTaken
		}
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByID(ctx, id))
}

// GetByOwner retrieves the account of a user.
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByOwner(ctx, ownerID))
}

// GetByCVU retrieves an account by its CVU.
func (r *AccountRepository) GetByCVU(ctx context.Context, cvu string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByCVU(ctx, cvu))
}

// GetByAlias retrieves an account by its alias.
func (r *AccountRepository) GetByAlias(ctx context.Context, alias string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByAlias(ctx, alias))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return accountOrNotFound(inTx(tx).GetAccountByIDForUpdate(ctx, id))
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := inTx(tx).GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// UpdateBalance sets the balance of an account and bumps its version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	return inTx(tx).UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
}

func accountOrNotFound(row generated.Account, err error) (*domain.Account, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		CVU:       row.Cvu,
		Alias:     row.Alias,
		Balance:   numericToDecimal(row.Balance),
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
