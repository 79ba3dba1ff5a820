package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry types.
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeTransfer   = "transfer"
)

// StatusCompleted is the only status written today; the column exists so a
// pending/settlement flow can be added without a schema change.
const StatusCompleted = "completed"

// Transaction is an immutable ledger entry recording one balance-affecting
// event on one account. A logical transfer produces two entries, one per
// side, each referencing the other side's account number.
type Transaction struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"account_id"`
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	Status              string          `json:"status"`
	RecipientAccountNum *int64          `json:"recipient_account_num,omitempty"`
	SenderAccountNum    *int64          `json:"sender_account_num,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}
