package accounts

import (
	"context"

	"github.com/araxy/lufunds/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	GetByAccountNum(ctx context.Context, accountNum int64) (*models.Account, error)

	// Credit atomically adds amount to the account balance and returns the
	// new balance.
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

	// Debit atomically subtracts amount from the account balance, failing
	// with common.ErrorInsufficientFunds when the balance would go negative.
	// The check and the write are a single statement, so two concurrent
	// debits can never jointly overdraw the account.
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
}
