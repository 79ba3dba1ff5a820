package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's single-currency balance. AccountNum is the
// user-facing numeric identifier used to address transfer recipients;
// uniqueness is enforced by the store.
type Account struct {
	ID         string
	UserID     string
	Balance    decimal.Decimal
	AccountNum int64
	CreatedAt  time.Time
}
