package repomanager

import (
	"context"
	"database/sql"

	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/repositories/accounts"
	"github.com/araxy/lufunds/internal/server/repositories/emailcodes"
	"github.com/araxy/lufunds/internal/server/repositories/transactions"
	"github.com/araxy/lufunds/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, which
// lets services run several repositories inside one transaction by passing
// the same *sql.Tx to each.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	EmailCodes(db dbx.DBTX) emailcodes.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
