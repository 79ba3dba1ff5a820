// Package accounts provides a PostgreSQL-backed repository for account
// balances. All balance mutations are single conditional UPDATE statements,
// never read-modify-write.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account. A duplicate account_num surfaces as
// common.ErrorAlreadyExists so the caller can redraw the number and retry.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (user_id, balance, account_num)
         VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.Balance, account.AccountNum).Scan(&account.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	query :=
		`SELECT id, user_id, balance, account_num FROM accounts
		 WHERE user_id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) GetByAccountNum(ctx context.Context, accountNum int64) (*models.Account, error) {
	query :=
		`SELECT id, user_id, balance, account_num FROM accounts
		 WHERE account_num = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, accountNum))
}

func (r *PostgresRepository) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	query :=
		`UPDATE accounts SET balance = balance + $2
		 WHERE id = $1
		 RETURNING balance
		 `

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, accountID, amount).Scan(&balance)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, common.ErrorNotFound
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	return balance, nil
}

func (r *PostgresRepository) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	query :=
		`UPDATE accounts SET balance = balance - $2
		 WHERE id = $1 AND balance >= $2
		 RETURNING balance
		 `

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, accountID, amount).Scan(&balance)

	if err != nil {
		// no row matched: either the account does not exist or the balance
		// is too low; callers look the account up first, so report the latter
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, common.ErrorInsufficientFunds
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	return balance, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.UserID, &account.Balance, &account.AccountNum)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}
