package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/models"
	"github.com/araxy/lufunds/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the single currency all accounts are denominated in.
const DefaultCurrency = "GBP"

// AccountService executes deposits, withdrawals, and transfers, keeping the
// balance and the ledger consistent. Every mutation runs inside one
// transaction, and balance updates are atomic conditional statements, so two
// concurrent mutations on the same account cannot interleave destructively.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager) *AccountService {
	return &AccountService{db: db, repomanager: m}
}

// Balance returns the current balance of the caller's account.
func (s *AccountService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {

	account, err := s.repomanager.Accounts(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error loading account: %w", err)
	}

	return account.Balance, nil
}

// Transactions returns the caller's ledger entries, newest first.
func (s *AccountService) Transactions(ctx context.Context, userID string) ([]models.Transaction, error) {

	account, err := s.repomanager.Accounts(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	list, err := s.repomanager.Transactions(s.db).ListByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading transactions: %w", err)
	}

	return list, nil
}

// Deposit credits amount to the caller's account and appends one ledger
// entry. Returns the new balance.
func (s *AccountService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {

	if !amount.IsPositive() {
		return decimal.Zero, common.ErrorInvalidAmount
	}

	var newBalance decimal.Decimal

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		account, err := s.repomanager.Accounts(tx).GetByUserID(ctx, userID)
		if err != nil {
			return err
		}

		newBalance, err = s.repomanager.Accounts(tx).Credit(ctx, account.ID, amount)
		if err != nil {
			return err
		}

		return s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			ID:        uuid.New().String(),
			AccountID: account.ID,
			Type:      models.TransactionTypeDeposit,
			Amount:    amount,
			Currency:  DefaultCurrency,
			Status:    models.StatusCompleted,
		})
	})

	if err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// Withdraw debits amount from the caller's account and appends one ledger
// entry. Fails with common.ErrorInsufficientFunds without touching the
// balance when the account cannot cover the amount.
func (s *AccountService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {

	if !amount.IsPositive() {
		return decimal.Zero, common.ErrorInvalidAmount
	}

	var newBalance decimal.Decimal

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		account, err := s.repomanager.Accounts(tx).GetByUserID(ctx, userID)
		if err != nil {
			return err
		}

		newBalance, err = s.repomanager.Accounts(tx).Debit(ctx, account.ID, amount)
		if err != nil {
			return err
		}

		return s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			ID:        uuid.New().String(),
			AccountID: account.ID,
			Type:      models.TransactionTypeWithdrawal,
			Amount:    amount,
			Currency:  DefaultCurrency,
			Status:    models.StatusCompleted,
		})
	})

	if err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// Transfer moves amount from the caller's account to the account addressed
// by recipientAccountNum. Both balance updates and both ledger entries are
// one transaction: either every row lands or none does. Returns the sender's
// new balance.
func (s *AccountService) Transfer(ctx context.Context, userID string, recipientAccountNum int64, amount decimal.Decimal) (decimal.Decimal, error) {

	if !amount.IsPositive() {
		return decimal.Zero, common.ErrorInvalidAmount
	}

	if recipientAccountNum == 0 {
		return decimal.Zero, common.ErrorMissingRecipient
	}

	var newBalance decimal.Decimal

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		accounts := s.repomanager.Accounts(tx)

		sender, err := accounts.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if sender.AccountNum == recipientAccountNum {
			return common.ErrorSameAccount
		}

		recipient, err := accounts.GetByAccountNum(ctx, recipientAccountNum)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorRecipientNotFound
			}
			return err
		}

		newBalance, err = accounts.Debit(ctx, sender.ID, amount)
		if err != nil {
			return err
		}

		if _, err := accounts.Credit(ctx, recipient.ID, amount); err != nil {
			return err
		}

		ledger := s.repomanager.Transactions(tx)

		if err := ledger.Create(ctx, &models.Transaction{
			ID:                  uuid.New().String(),
			AccountID:           sender.ID,
			Type:                models.TransactionTypeTransfer,
			Amount:              amount,
			Currency:            DefaultCurrency,
			Status:              models.StatusCompleted,
			RecipientAccountNum: &recipient.AccountNum,
		}); err != nil {
			return err
		}

		return ledger.Create(ctx, &models.Transaction{
			ID:               uuid.New().String(),
			AccountID:        recipient.ID,
			Type:             models.TransactionTypeTransfer,
			Amount:           amount,
			Currency:         DefaultCurrency,
			Status:           models.StatusCompleted,
			SenderAccountNum: &sender.AccountNum,
		})
	})

	if err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}
