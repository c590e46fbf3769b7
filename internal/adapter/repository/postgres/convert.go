package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/postgres/generated"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// Constraint names from migrations/000001_init.up.sql.
const (
	constraintAccountOwner = "accounts_owner_id_key"
	constraintAccountCVU   = "accounts_cvu_key"
	constraintAccountAlias = "accounts_alias_key"
	constraintCardNumber   = "cards_owner_number_key"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// uniqueViolation returns the constraint a unique violation was raised on.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// inTx binds the generated queries to the pgx transaction behind tx.
func inTx(tx usecase.Transaction) *generated.Queries {
	return generated.New(tx.(*Tx).PgxTx())
}
